package frontend

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	captureloop "github.com/maskedsyntax/pypixl/capture-loop"
	postprocessing "github.com/maskedsyntax/pypixl/post-processing"
	"github.com/maskedsyntax/pypixl/recording"
)

// inspectionMsg carries the result of probing a finished recording
type inspectionMsg struct {
	report *postprocessing.InspectionReport
	err    error
}

const (
	thumbnailCols = 64
	thumbnailRows = 18
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	recStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	standbyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	noSignalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(thumbnailCols).Height(thumbnailRows).Align(lipgloss.Center, lipgloss.Center)
	thumbnailFrame = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)

// Model is the bubbletea model of the terminal UI. Every call into the
// controller happens inside Update, so the capture loop only ever runs on the
// program's event loop.
type Model struct {
	controller Controller
	scheduler  *TeaScheduler
	display    *Display
	inspector  postprocessing.ClipInspector
	now        func() time.Time

	width, height int
	inspection    string
	inspectionOK  bool
	quitting      bool
}

// NewModel builds the UI. scheduler and display must be the ones wired into the controller.
func NewModel(controller Controller, scheduler *TeaScheduler, display *Display, inspector postprocessing.ClipInspector) Model {
	return Model{
		controller: controller,
		scheduler:  scheduler,
		display:    display,
		inspector:  inspector,
		now:        time.Now,
	}
}

func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m Model) Init() tea.Cmd {
	return m.scheduler.Arm()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameTickMsg:
		if !m.scheduler.accept(msg) {
			return m, nil
		}
		m.controller.Tick()
		return m, m.scheduler.Arm()

	case inspectionMsg:
		m.inspection, m.inspectionOK = describeInspection(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.controller.Close()
		m.quitting = true
		return m, tea.Quit

	case "0", "1", "2", "3", "4":
		m.controller.SelectDevice(int(key[0] - '0'))
		return m, m.scheduler.Arm()

	case "r":
		if m.controller.Recording() {
			clip, _ := m.controller.StopRecording()
			return m, m.inspect(clip)
		}
		m.inspection = ""
		m.controller.StartRecording()

	case "c":
		m.controller.Snapshot()
	}
	return m, nil
}

// inspect probes a finished recording off the event loop
func (m Model) inspect(clip *recording.Clip) tea.Cmd {
	if m.inspector == nil || clip == nil || clip.Frames == 0 {
		return nil
	}
	inspector := m.inspector
	return func() tea.Msg {
		report, err := inspector.Inspect(clip)
		return inspectionMsg{report: report, err: err}
	}
}

func describeInspection(msg inspectionMsg) (string, bool) {
	if msg.err != nil {
		return fmt.Sprintf("Inspection unavailable: %v", msg.err), false
	}
	r := msg.report
	text := fmt.Sprintf("%d frames · plays %s · recorded %s",
		r.Clip.Frames, r.ProbedDuration.Round(10*time.Millisecond), r.WallDuration.Round(10*time.Millisecond))
	if !r.IsConstantRate() {
		return text + fmt.Sprintf(" · drift %s", r.Drift.Round(time.Millisecond)), false
	}
	return text, true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var lines []string
	lines = append(lines, titleStyle.Render("PyPixl"))

	if info, ok := m.controller.Session(); ok {
		elapsed := m.now().Sub(info.StartedAt)
		lines = append(lines, recStyle.Render(fmt.Sprintf("● REC %s", formatElapsed(elapsed)))+
			infoStyle.Render(fmt.Sprintf("  %d frames · %s", info.FramesWritten, info.Codec)))
	} else {
		lines = append(lines, standbyStyle.Render("○ STANDBY"))
	}

	lines = append(lines, infoStyle.Render(m.cameraLine()))

	if thumb := m.display.Thumbnail(thumbnailCols, thumbnailRows); thumb != "" {
		lines = append(lines, thumbnailFrame.Render(thumb))
	} else {
		lines = append(lines, thumbnailFrame.Render(noSignalStyle.Render("No Signal")))
	}

	if status := m.display.Status(); status != "" {
		lines = append(lines, status)
	}
	if m.inspection != "" {
		style := warnStyle
		if m.inspectionOK {
			style = okStyle
		}
		lines = append(lines, style.Render(m.inspection))
	}

	lines = append(lines, "")
	lines = append(lines, helpKeyStyle.Render("0-4")+helpStyle.Render(" camera  ")+
		helpKeyStyle.Render("r")+helpStyle.Render(" record  ")+
		helpKeyStyle.Render("c")+helpStyle.Render(" capture  ")+
		helpKeyStyle.Render("q")+helpStyle.Render(" quit"))

	return strings.Join(lines, "\n")
}

func (m Model) cameraLine() string {
	index, open := m.controller.DeviceIndex()
	if !open {
		return "No camera"
	}
	line := fmt.Sprintf("Camera %d · %g FPS", index, m.controller.DeviceFPS())
	if size := m.display.FrameSize(); size.X > 0 {
		line += fmt.Sprintf(" · %dx%d", size.X, size.Y)
	}
	if !m.display.Signal() {
		line += " · waiting for frames"
	}
	return line
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

var _ captureloop.Preview = (*Display)(nil)
var _ captureloop.Scheduler = (*TeaScheduler)(nil)
