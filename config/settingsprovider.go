package config

import "sync"

type SettingsProvider[T any] interface {
	// GetSettings returns the current settings of type T.
	GetSettings() T
}

// StaticSettingsProvider serves a fixed value that can be replaced between reads
type StaticSettingsProvider[T any] struct {
	mu       sync.RWMutex
	settings T
}

func NewStaticSettingsProvider[T any](settings T) *StaticSettingsProvider[T] {
	return &StaticSettingsProvider[T]{settings: settings}
}

func (p *StaticSettingsProvider[T]) GetSettings() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// SetSettings replaces the value returned by subsequent GetSettings calls
func (p *StaticSettingsProvider[T]) SetSettings(settings T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = settings
}
