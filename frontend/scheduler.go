package frontend

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameTickMsg asks the model to run one capture tick. Ticks from a schedule
// that has since been stopped or replaced carry an old generation and are dropped.
type frameTickMsg struct {
	generation int
}

// TeaScheduler drives the capture loop from the bubbletea event loop. Only one
// tick is ever in flight; the next one is armed after the previous was handled.
type TeaScheduler struct {
	generation int
	interval   time.Duration
	running    bool
	armed      bool
}

func NewTeaScheduler() *TeaScheduler {
	return &TeaScheduler{}
}

func (s *TeaScheduler) Start(interval time.Duration) {
	s.generation++
	s.interval = interval
	s.running = true
	s.armed = false
}

func (s *TeaScheduler) Stop() {
	s.generation++
	s.running = false
	s.armed = false
}

// Running reports whether ticks are being scheduled
func (s *TeaScheduler) Running() bool {
	return s.running
}

func (s *TeaScheduler) Interval() time.Duration {
	return s.interval
}

// Arm returns a command delivering the next tick, or nil if the schedule is
// stopped or a tick is already pending
func (s *TeaScheduler) Arm() tea.Cmd {
	if !s.running || s.armed {
		return nil
	}
	s.armed = true
	generation := s.generation
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return frameTickMsg{generation: generation}
	})
}

// accept consumes a delivered tick and reports whether it belongs to the current schedule
func (s *TeaScheduler) accept(msg frameTickMsg) bool {
	if msg.generation != s.generation || !s.running {
		return false
	}
	s.armed = false
	return true
}

// TickerScheduler drives the capture loop from a time.Ticker for the headless runner
type TickerScheduler struct {
	ticker *time.Ticker
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

func (s *TickerScheduler) Start(interval time.Duration) {
	s.Stop()
	s.ticker = time.NewTicker(interval)
}

func (s *TickerScheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// Ticks returns the channel of the current ticker, nil while stopped
func (s *TickerScheduler) Ticks() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}
