package postprocessing

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/maskedsyntax/pypixl/config"
	"github.com/maskedsyntax/pypixl/logging"
	"github.com/maskedsyntax/pypixl/recording"
	"github.com/xfrr/goffmpeg/transcoder"
)

type ClipInspector interface {
	// Inspect probes a finished recording and compares it with what the sink wrote
	Inspect(clip *recording.Clip) (*InspectionReport, error)
}

// FfmpegClipInspector reads container metadata through ffprobe. It never
// rewrites the file.
type FfmpegClipInspector struct {
	settingsProvider config.SettingsProvider[InspectionSettings]
	logger           logging.Logger
	probeDuration    func(path string) (string, error)
}

func NewFfmpegClipInspector(settingsProvider config.SettingsProvider[InspectionSettings], logger logging.Logger) *FfmpegClipInspector {
	if settingsProvider == nil {
		settingsProvider = config.NewStaticSettingsProvider(DefaultInspectionSettings)
	}
	return &FfmpegClipInspector{
		settingsProvider: settingsProvider,
		logger:           logging.OrNop(logger),
		probeDuration:    ffprobeDuration,
	}
}

func (i *FfmpegClipInspector) Inspect(clip *recording.Clip) (*InspectionReport, error) {
	if clip == nil {
		return nil, fmt.Errorf("no clip to inspect")
	}

	settings := i.settingsProvider.GetSettings()

	raw, err := i.probeDuration(clip.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", clip.Path, err)
	}

	probed, err := parseDuration(raw)
	if err != nil {
		return nil, err
	}

	report := &InspectionReport{
		Clip:            clip,
		ProbedDuration:  probed,
		NominalDuration: clip.NominalDuration(),
		WallDuration:    clip.Duration(),
		Tolerance:       settings.DriftTolerance,
	}
	report.Drift = report.ProbedDuration - report.NominalDuration

	if report.IsConstantRate() {
		i.logger.Info("Recording inspected", "path", clip.Path, "probed", probed, "nominal", report.NominalDuration, "wall", report.WallDuration)
	} else {
		i.logger.Warn("Recording length does not match frame count", "path", clip.Path, "probed", probed, "nominal", report.NominalDuration, "drift", report.Drift)
	}
	return report, nil
}

// ffprobeDuration returns the container duration in seconds, as text
func ffprobeDuration(path string) (string, error) {
	trans := new(transcoder.Transcoder)

	// Initialize probes the input; the output is never written since Run is not called
	if err := trans.Initialize(path, os.DevNull); err != nil {
		return "", fmt.Errorf("failed to initialize transcoder: %w", err)
	}
	return trans.MediaFile().Metadata().Format.Duration, nil
}

func parseDuration(durationStr string) (time.Duration, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration in video metadata")
	}

	// Parse duration string to float64 seconds
	durationSeconds, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", durationStr, err)
	}

	if durationSeconds <= 0 {
		return 0, fmt.Errorf("invalid or zero duration: %f seconds", durationSeconds)
	}

	// Convert to time.Duration
	duration := time.Duration(durationSeconds * float64(time.Second))
	return duration, nil
}
