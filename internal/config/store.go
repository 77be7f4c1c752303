package config

import (
	"sync"

	"github.com/dshills/tagsource/internal/notify"
)

// Store holds the active configuration.
type Store struct {
	mu      sync.RWMutex
	current *Config
	changed notify.Notifier[*Config]
}

// NewStore creates a store holding cfg, or the defaults when cfg is nil.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = Default()
	}
	return &Store{current: cfg}
}

// Current returns a copy of the active configuration.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Set replaces the active configuration and notifies observers.
func (s *Store) Set(cfg *Config) {
	if cfg == nil {
		return
	}

	s.mu.Lock()
	s.current = cfg.Clone()
	s.mu.Unlock()

	s.changed.Notify(cfg.Clone())
}

// OnChanged registers an observer for configuration replacements.
func (s *Store) OnChanged(fn func(*Config)) *notify.Subscription {
	return s.changed.Subscribe(fn)
}
