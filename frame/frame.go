package frame

import (
	"fmt"
	"image"
)

// PixelFormat describes the memory layout of a single pixel
type PixelFormat string

const (
	// FormatBGR24 is 3 channels, 8 bits each, in the channel-reversed order cameras deliver
	FormatBGR24 PixelFormat = "bgr24"
	// FormatGray8 is a single 8-bit channel
	FormatGray8 PixelFormat = "gray8"
)

// Channels returns the number of 8-bit channels per pixel, or 0 for an unknown format
func (f PixelFormat) Channels() int {
	switch f {
	case FormatBGR24:
		return 3
	case FormatGray8:
		return 1
	default:
		return 0
	}
}

// Frame is one captured bitmap. Stride is the number of bytes per row and may
// exceed Width*Channels when rows are padded.
type Frame struct {
	Width  int
	Height int
	Stride int
	Format PixelFormat
	Pix    []byte
}

// Empty reports whether the frame carries no pixels
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// Size returns the frame dimensions as a point (X = width, Y = height)
func (f Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// Clone returns a deep copy that shares no memory with f
func (f Frame) Clone() Frame {
	c := f
	if f.Pix != nil {
		c.Pix = make([]byte, len(f.Pix))
		copy(c.Pix, f.Pix)
	}
	return c
}

// Validate checks that the pixel buffer is large enough for the declared geometry
func (f Frame) Validate() error {
	channels := f.Format.Channels()
	if channels == 0 {
		return fmt.Errorf("unsupported pixel format %q", f.Format)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if f.Stride < f.Width*channels {
		return fmt.Errorf("stride %d is smaller than row size %d", f.Stride, f.Width*channels)
	}
	if need := f.Stride * f.Height; len(f.Pix) < need {
		return fmt.Errorf("pixel buffer has %d bytes, need %d", len(f.Pix), need)
	}
	return nil
}

// Packed reports whether rows follow each other without padding
func (f Frame) Packed() bool {
	return f.Stride == f.Width*f.Format.Channels()
}

// New allocates a zeroed, tightly packed frame
func New(width, height int, format PixelFormat) Frame {
	stride := width * format.Channels()
	return Frame{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    make([]byte, stride*height),
	}
}

// Compact returns f with rows tightly packed. A frame that is already packed is
// returned as is; otherwise the pixels are copied.
func (f Frame) Compact() Frame {
	if f.Packed() {
		return f
	}
	c := New(f.Width, f.Height, f.Format)
	row := f.Width * f.Format.Channels()
	for y := 0; y < f.Height; y++ {
		copy(c.Pix[y*row:(y+1)*row], f.Pix[y*f.Stride:y*f.Stride+row])
	}
	return c
}
