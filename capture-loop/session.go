package captureloop

import (
	"time"

	"github.com/maskedsyntax/pypixl/pacing"
)

// recordingSession exists only while recording is active and is only touched by the Loop
type recordingSession struct {
	path      string
	codec     string
	startedAt time.Time
	timeline  *pacing.Timeline
}

func newRecordingSession(path, codec string, startedAt time.Time) *recordingSession {
	return &recordingSession{
		path:      path,
		codec:     codec,
		startedAt: startedAt,
		timeline:  pacing.NewTimeline(TargetFPS),
	}
}

// elapsedMs is the time since the session started, in milliseconds
func (s *recordingSession) elapsedMs(now time.Time) float64 {
	return float64(now.Sub(s.startedAt)) / float64(time.Millisecond)
}

// SessionInfo is a read-only view of the active recording
type SessionInfo struct {
	Path          string
	Codec         string
	StartedAt     time.Time
	LastEmittedMs float64
	FramesWritten int
	Resyncs       int
}
