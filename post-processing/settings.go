package postprocessing

import (
	"time"

	"github.com/maskedsyntax/pypixl/config"
)

type InspectionSettings struct {
	DriftTolerance time.Duration // Largest accepted gap between probed and nominal duration
}

var DefaultInspectionSettings = InspectionSettings{
	DriftTolerance: 250 * time.Millisecond,
}

// InspectionSettingsProvider implements SettingsProvider for InspectionSettings
type InspectionSettingsProvider struct {
	configProvider config.SettingsProvider[config.Config]
}

func NewInspectionSettingsProvider(configProvider config.SettingsProvider[config.Config]) *InspectionSettingsProvider {
	return &InspectionSettingsProvider{
		configProvider: configProvider,
	}
}

// GetSettings returns the current inspection settings mapped from the application config
func (p *InspectionSettingsProvider) GetSettings() InspectionSettings {
	cfg := p.configProvider.GetSettings()

	settings := DefaultInspectionSettings
	if cfg.DriftToleranceMs > 0 {
		settings.DriftTolerance = time.Duration(cfg.DriftToleranceMs) * time.Millisecond
	}
	return settings
}
