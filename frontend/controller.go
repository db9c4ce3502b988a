package frontend

import (
	captureloop "github.com/maskedsyntax/pypixl/capture-loop"
	"github.com/maskedsyntax/pypixl/recording"
)

// Controller is the subset of the capture loop the front ends drive
type Controller interface {
	SelectDevice(index int) error
	Tick()
	StartRecording() error
	StopRecording() (*recording.Clip, error)
	Snapshot() (string, error)
	Close()

	DeviceIndex() (int, bool)
	DeviceFPS() float64
	HasFrame() bool
	Recording() bool
	Session() (captureloop.SessionInfo, bool)
}

var _ Controller = (*captureloop.Loop)(nil)
