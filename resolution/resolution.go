package resolution

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is a capture size in pixels
type Resolution struct {
	Width  int
	Height int
}

var presets = map[string]Resolution{
	"240p":  {Width: 426, Height: 240},
	"360p":  {Width: 640, Height: 360},
	"480p":  {Width: 854, Height: 480},
	"720p":  {Width: 1280, Height: 720},
	"1080p": {Width: 1920, Height: 1080},
}

// Default is the size requested from every camera; devices may ignore it
var Default = Resolution720p()

func Resolution720p() Resolution {
	return presets["720p"]
}

// Returns the string representation of this Resolution (e.g. 1280x720)
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

func (r Resolution) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// IsEmpty checks if the resolution is empty (both width and height are zero).
func (r Resolution) IsEmpty() bool {
	return r.Width == 0 && r.Height == 0
}

// Valid reports whether both dimensions are positive
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Parse converts a textual resolution into a Resolution.
// Supported formats:
// - "1280x720"
// - "1280:720"
// - "720p" and the other presets from 240p to 1080p
func Parse(s string) (Resolution, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	var res Resolution
	var err error
	switch {
	case strings.Contains(s, "x"):
		res, err = parseDimensions(s, "x")
	case strings.Contains(s, ":"):
		res, err = parseDimensions(s, ":")
	case strings.HasSuffix(s, "p"):
		preset, ok := presets[s]
		if !ok {
			err = fmt.Errorf("unsupported resolution preset: %s", s)
		}
		res = preset
	default:
		err = fmt.Errorf("invalid resolution format: %s", s)
	}
	if err != nil {
		return Resolution{}, err
	}
	if !res.Valid() {
		return Resolution{}, fmt.Errorf("resolution must be positive: %s", s)
	}
	return res, nil
}

func parseDimensions(s, sep string) (Resolution, error) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("invalid dimensions: %s", s)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid width: %s", parts[0])
	}

	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid height: %s", parts[1])
	}

	return Resolution{Width: width, Height: height}, nil
}
