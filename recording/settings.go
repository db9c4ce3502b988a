package recording

import (
	"github.com/maskedsyntax/pypixl/common"
	"github.com/maskedsyntax/pypixl/config"
	"github.com/maskedsyntax/pypixl/pacing"
)

type RecordingSettings struct {
	Codec     string  // Preferred four-character code (e.g., "XVID"); MJPG is the fallback
	FrameRate float64 // Nominal rate written into the container
}

var DefaultRecordingSettings = RecordingSettings{
	Codec:     common.PrimaryCodec,
	FrameRate: pacing.DefaultFPS,
}

// RecordingSettingsProvider derives recording settings from the application config
type RecordingSettingsProvider struct {
	configProvider config.SettingsProvider[config.Config]
}

func NewRecordingSettingsProvider(configProvider config.SettingsProvider[config.Config]) *RecordingSettingsProvider {
	return &RecordingSettingsProvider{
		configProvider: configProvider,
	}
}

// GetSettings returns the current recording settings. The frame rate is fixed.
func (p *RecordingSettingsProvider) GetSettings() RecordingSettings {
	cfg := p.configProvider.GetSettings()

	settings := DefaultRecordingSettings
	if cfg.CaptureCodec != "" {
		settings.Codec = common.NormalizeCodec(cfg.CaptureCodec)
	}
	return settings
}
