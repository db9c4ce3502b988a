package captureloop

import (
	"time"

	"github.com/maskedsyntax/pypixl/frame"
	"github.com/maskedsyntax/pypixl/resolution"
)

// Device is an open camera
type Device interface {
	// SetResolution requests a capture size; devices may ignore it
	SetResolution(res resolution.Resolution)
	// ReportedFPS is the native rate the driver claims, which may be zero or nonsense
	ReportedFPS() float64
	// Read pulls one frame. The returned frame is owned by the caller.
	Read() (frame.Frame, bool)
	Close() error
}

// DeviceOpener opens cameras by index
type DeviceOpener interface {
	Open(index int) (Device, error)
}

// Scheduler drives Tick periodically. Start replaces any running schedule;
// Stop disarms it. Neither is called while a tick is executing.
type Scheduler interface {
	Start(interval time.Duration)
	Stop()
}

// Preview receives the latest frame after every successful tick
type Preview interface {
	Present(f frame.Frame)
	NoSignal()
}

// SnapshotWriter stores a single frame as an image file
type SnapshotWriter interface {
	WriteSnapshot(path string, f frame.Frame) error
}

// StatusFunc receives human-readable status lines
type StatusFunc func(status string)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type nopPreview struct{}

func (nopPreview) Present(frame.Frame) {}
func (nopPreview) NoSignal()           {}

type nopScheduler struct{}

func (nopScheduler) Start(time.Duration) {}
func (nopScheduler) Stop()               {}
