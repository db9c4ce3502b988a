package recording

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEncoderUnavailable is returned when no codec in the chain could be opened
	ErrEncoderUnavailable = errors.New("no video encoder could be opened")
	// ErrAlreadyStarted is returned by Start while an encoder is open
	ErrAlreadyStarted = errors.New("recording sink already started")
)

// CodecAttempt records one failed attempt to open an encoder
type CodecAttempt struct {
	Codec string
	Err   error
}

// StartError lists every codec that was tried when a sink failed to start
type StartError struct {
	Path     string
	Attempts []CodecAttempt
}

func (e *StartError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Codec, a.Err))
	}
	return fmt.Sprintf("failed to open encoder for %s (%s)", e.Path, strings.Join(parts, "; "))
}

func (e *StartError) Unwrap() error {
	return ErrEncoderUnavailable
}
