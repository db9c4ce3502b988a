package frontend

import (
	"image"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/maskedsyntax/pypixl/frame"
)

// grayLevels is the size of the xterm-256 grayscale ramp (colors 232-255)
const grayLevels = 24

// Pre-computed half-block styles, indexed by top and bottom gray level
var grayStyles [grayLevels][grayLevels]lipgloss.Style

func init() {
	for top := 0; top < grayLevels; top++ {
		for bot := 0; bot < grayLevels; bot++ {
			grayStyles[top][bot] = lipgloss.NewStyle().
				Foreground(grayColor(top)).
				Background(grayColor(bot))
		}
	}
}

func grayColor(level int) lipgloss.Color {
	return lipgloss.Color(strconv.Itoa(232 + level))
}

// Display is the preview surface and status line of the terminal UI.
// It keeps only the most recent frame.
type Display struct {
	latest   frame.Frame
	signal   bool
	received int
	status   string
}

func NewDisplay() *Display {
	return &Display{}
}

func (d *Display) Present(f frame.Frame) {
	d.latest = f
	d.signal = true
	d.received++
}

func (d *Display) NoSignal() {
	d.latest = frame.Frame{}
	d.signal = false
}

// SetStatus is used as the capture loop's status callback
func (d *Display) SetStatus(status string) {
	d.status = status
}

func (d *Display) Status() string {
	return d.status
}

func (d *Display) Signal() bool {
	return d.signal
}

// FrameSize is the size of the latest frame, zero before the first one
func (d *Display) FrameSize() image.Point {
	return d.latest.Size()
}

// FramesReceived counts every frame presented since start
func (d *Display) FramesReceived() int {
	return d.received
}

// Thumbnail renders the latest frame in cols x rows terminal cells, two pixel
// rows per cell. It returns "" when there is nothing to show.
func (d *Display) Thumbnail(cols, rows int) string {
	if !d.signal || d.latest.Empty() || cols <= 0 || rows <= 0 {
		return ""
	}
	levels := sampleGray(d.latest, cols, rows*2)

	var b strings.Builder
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := levels[cy*2][cx]
			bot := levels[cy*2+1][cx]
			b.WriteString(grayStyles[top][bot].Render("▀"))
		}
		if cy < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// sampleGray picks the nearest source pixel for every target pixel and maps its
// luma onto the grayscale ramp
func sampleGray(f frame.Frame, width, height int) [][]int {
	channels := f.Format.Channels()
	levels := make([][]int, height)
	for y := 0; y < height; y++ {
		levels[y] = make([]int, width)
		sy := y * f.Height / height
		row := f.Pix[sy*f.Stride:]
		for x := 0; x < width; x++ {
			sx := x * f.Width / width
			levels[y][x] = luma(row[sx*channels:], f.Format) * grayLevels / 256
		}
	}
	return levels
}

func luma(px []byte, format frame.PixelFormat) int {
	if format == frame.FormatGray8 {
		return int(px[0])
	}
	// BGR order, Rec. 601 weights scaled to 256
	return (29*int(px[0]) + 150*int(px[1]) + 77*int(px[2])) >> 8
}
