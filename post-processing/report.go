package postprocessing

import (
	"time"

	"github.com/maskedsyntax/pypixl/recording"
)

// InspectionReport compares what the container claims with what was written
type InspectionReport struct {
	Clip            *recording.Clip
	ProbedDuration  time.Duration // As reported by ffprobe
	NominalDuration time.Duration // Frames written divided by the nominal rate
	Drift           time.Duration // ProbedDuration - NominalDuration
	WallDuration    time.Duration // How long the recording actually ran
	Tolerance       time.Duration
}

// IsConstantRate reports whether the probed length matches the frame count within tolerance
func (r *InspectionReport) IsConstantRate() bool {
	return absDuration(r.Drift) <= r.Tolerance
}

// PlaybackSkew is how far playback length deviates from the real recording time
func (r *InspectionReport) PlaybackSkew() time.Duration {
	return r.ProbedDuration - r.WallDuration
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
