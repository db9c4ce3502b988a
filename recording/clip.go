package recording

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/maskedsyntax/pypixl/common"
)

// Clip describes a finished recording
type Clip struct {
	Path        string
	Codec       string
	StartedAt   time.Time
	StoppedAt   time.Time
	Frames      int
	FrameRate   float64
	WriteErrors int
}

// Duration is the wall-clock time the encoder was open
func (c *Clip) Duration() time.Duration {
	return c.StoppedAt.Sub(c.StartedAt)
}

// NominalDuration is the playback length implied by the frame count at the nominal rate
func (c *Clip) NominalDuration() time.Duration {
	if c.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames) / c.FrameRate * float64(time.Second))
}

func (c *Clip) FileExtension() string {
	if ext := filepath.Ext(c.Path); ext != "" {
		return strings.TrimLeft(ext, ".")
	}
	return strings.TrimLeft(common.CodecToFileExtension(c.Codec), ".")
}
