package pacing

import "math"

const (
	// DefaultFPS is the nominal output rate of every recording
	DefaultFPS = 30.0
	// MinCopies is the least number of copies emitted per captured frame
	MinCopies = 1
	// MaxCopies bounds the burst written after a stall
	MaxCopies = 5
	// ResyncThresholdMs is the largest tolerated gap between logical and wall-clock time
	ResyncThresholdMs = 200.0
)

// Timeline converts frames arriving at an irregular rate into a constant-rate
// stream by telling the caller how many copies of each frame to write.
//
// The logical position only ever advances in whole frame intervals, except when
// it drifts more than ResyncThresholdMs from wall-clock time, in which case it
// is snapped to the wall clock.
type Timeline struct {
	intervalMs    float64
	lastEmittedMs float64
	primed        bool
	emitted       int
	resyncs       int
}

// NewTimeline creates a timeline for the given nominal frame rate.
// Non-positive rates fall back to DefaultFPS.
func NewTimeline(fps float64) *Timeline {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Timeline{intervalMs: 1000.0 / fps}
}

// Pace returns how many copies (MinCopies..MaxCopies) of the frame captured at
// nowMs, milliseconds since recording start, must be written.
func (t *Timeline) Pace(nowMs float64) int {
	if !t.primed {
		t.primed = true
		t.lastEmittedMs = nowMs
		t.emitted++
		return 1
	}

	delta := nowMs - t.lastEmittedMs
	copies := int(math.Round(delta / t.intervalMs))
	if copies < MinCopies {
		copies = MinCopies
	}
	if copies > MaxCopies {
		copies = MaxCopies
	}

	t.lastEmittedMs += float64(copies) * t.intervalMs
	t.emitted += copies

	if math.Abs(nowMs-t.lastEmittedMs) > ResyncThresholdMs {
		t.lastEmittedMs = nowMs
		t.resyncs++
	}

	return copies
}

// Reset returns the timeline to its unprimed state so the next Pace call
// starts a new session
func (t *Timeline) Reset() {
	t.lastEmittedMs = 0
	t.primed = false
	t.emitted = 0
	t.resyncs = 0
}

// IntervalMs returns the nominal frame interval in milliseconds
func (t *Timeline) IntervalMs() float64 {
	return t.intervalMs
}

// LastEmittedMs returns the logical position of the last written frame
func (t *Timeline) LastEmittedMs() float64 {
	return t.lastEmittedMs
}

// Primed reports whether the first frame of the session has been paced
func (t *Timeline) Primed() bool {
	return t.primed
}

// Emitted returns the total number of copies requested since the last reset
func (t *Timeline) Emitted() int {
	return t.emitted
}

// Resyncs returns how many times the timeline was snapped to the wall clock
func (t *Timeline) Resyncs() int {
	return t.resyncs
}
