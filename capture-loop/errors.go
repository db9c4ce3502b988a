package captureloop

import "errors"

var (
	ErrInvalidDevice    = errors.New("device index out of range")
	ErrDeviceOpen       = errors.New("failed to open camera")
	ErrNoFrame          = errors.New("no camera frame available")
	ErrAlreadyRecording = errors.New("recording already in progress")
)
