package recording

import (
	"fmt"
	"image"
	"time"

	"github.com/maskedsyntax/pypixl/common"
	"github.com/maskedsyntax/pypixl/config"
	"github.com/maskedsyntax/pypixl/frame"
	"github.com/maskedsyntax/pypixl/logging"
)

// Encoder appends frames to an open video file
type Encoder interface {
	Write(f frame.Frame) error
	// Close flushes and releases the file. It is called exactly once.
	Close() error
}

// EncoderOpener creates encoders. When Open fails it must not leave any file
// handle or encoder context behind.
type EncoderOpener interface {
	Open(path string, codec string, fps float64, size image.Point) (Encoder, error)
}

// Sink owns the lifecycle of a single video encoder at a time: open with codec
// fallback, write, close. It is not safe for concurrent use; the capture loop
// calls it from one goroutine.
type Sink struct {
	opener           EncoderOpener
	settingsProvider config.SettingsProvider[RecordingSettings]
	logger           logging.Logger
	now              func() time.Time

	encoder Encoder
	clip    *Clip
}

func NewSink(opener EncoderOpener, provider config.SettingsProvider[RecordingSettings], logger logging.Logger) *Sink {
	if provider == nil {
		provider = config.NewStaticSettingsProvider(DefaultRecordingSettings)
	}
	return &Sink{
		opener:           opener,
		settingsProvider: provider,
		logger:           logging.OrNop(logger),
		now:              time.Now,
	}
}

// IsOpen reports whether an encoder is currently open
func (s *Sink) IsOpen() bool {
	return s.encoder != nil
}

// Start opens an encoder at path for frames of the given size. The configured
// codec is tried first, then its fallback, both at the same path, rate and size.
// It returns the codec that opened.
func (s *Sink) Start(path string, size image.Point) (string, error) {
	if s.encoder != nil {
		return "", ErrAlreadyStarted
	}
	if size.X <= 0 || size.Y <= 0 {
		return "", fmt.Errorf("invalid frame size %dx%d", size.X, size.Y)
	}

	settings := s.settingsProvider.GetSettings()
	fps := settings.FrameRate
	if fps <= 0 {
		fps = DefaultRecordingSettings.FrameRate
	}

	startErr := &StartError{Path: path}
	for _, codec := range common.CodecChain(settings.Codec) {
		enc, err := s.opener.Open(path, codec, fps, size)
		if err != nil {
			s.logger.Warn("Failed to open encoder", "path", path, "codec", codec, "error", err)
			startErr.Attempts = append(startErr.Attempts, CodecAttempt{Codec: codec, Err: err})
			continue
		}

		s.encoder = enc
		s.clip = &Clip{
			Path:      path,
			Codec:     codec,
			StartedAt: s.now(),
			FrameRate: fps,
		}
		s.logger.Info("Encoder opened", "path", path, "codec", codec, "fps", fps, "width", size.X, "height", size.Y)
		return codec, nil
	}

	return "", startErr
}

// Write appends one frame. Encoder errors are counted on the clip and logged once.
func (s *Sink) Write(f frame.Frame) {
	s.WriteCopies(f, 1)
}

// WriteCopies appends n identical copies of f, in order.
func (s *Sink) WriteCopies(f frame.Frame, n int) {
	if s.encoder == nil {
		return
	}
	for i := 0; i < n; i++ {
		if err := s.encoder.Write(f); err != nil {
			if s.clip.WriteErrors == 0 {
				s.logger.Warn("Failed to write frame", "path", s.clip.Path, "frame", s.clip.Frames, "error", err)
			}
			s.clip.WriteErrors++
			continue
		}
		s.clip.Frames++
	}
}

// FramesWritten returns the number of frames written to the open encoder
func (s *Sink) FramesWritten() int {
	if s.clip == nil {
		return 0
	}
	return s.clip.Frames
}

// Stop flushes and closes the encoder and returns the finished clip. Stopping
// a sink that is not open does nothing and returns nil, nil.
func (s *Sink) Stop() (*Clip, error) {
	if s.encoder == nil {
		return nil, nil
	}

	enc, clip := s.encoder, s.clip
	s.encoder, s.clip = nil, nil
	clip.StoppedAt = s.now()

	s.logger.Info("Closing encoder", "path", clip.Path, "frames", clip.Frames, "write_errors", clip.WriteErrors)
	if err := enc.Close(); err != nil {
		return clip, fmt.Errorf("failed to close encoder for %s: %w", clip.Path, err)
	}
	return clip, nil
}
