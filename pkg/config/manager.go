package config

import (
	"fmt"
	"sync/atomic"
)

// Manager holds the active configuration and supports atomic replacement.
// Readers always observe a complete snapshot; a concurrent update never
// exposes a partially applied configuration.
type Manager struct {
	current atomic.Pointer[Config]
}

// NewManager creates a manager seeded with the given configuration.
// The configuration must already be validated.
func NewManager(cfg *Config) *Manager {
	m := &Manager{}
	m.current.Store(cfg)
	return m
}

// Current returns the active configuration snapshot. The returned pointer
// must be treated as read-only.
func (m *Manager) Current() *Config {
	return m.current.Load()
}

// Update validates the candidate configuration and, if valid, makes it the
// active snapshot. On validation failure the previous configuration stays
// active.
func (m *Manager) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	m.current.Store(cfg)
	return nil
}

// Reload loads configuration from the given path and swaps it in atomically.
// On any load or validation error the previous configuration stays active.
func (m *Manager) Reload(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	m.current.Store(cfg)
	return nil
}
