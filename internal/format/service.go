package format

import (
	"sync"

	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/notify"
)

// Service hands out one format map per view.
type Service struct {
	mu    sync.Mutex
	theme *Theme
	maps  map[string]*viewMap
}

type viewMap struct {
	m   *Map
	sub *notify.Subscription
}

// NewService creates a format map service using theme for new maps.
func NewService(theme *Theme) *Service {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Service{
		theme: theme,
		maps:  make(map[string]*viewMap),
	}
}

// ForView returns the format map of view, creating it on first use.
// The map is released when the view closes.
func (s *Service) ForView(view *host.View) (*Map, error) {
	if view == nil {
		return nil, ErrNilView
	}
	if view.IsClosed() {
		return nil, ErrViewClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if vm, ok := s.maps[view.ID()]; ok {
		return vm.m, nil
	}
	vm := &viewMap{m: NewMap(s.theme)}
	vm.sub = view.OnClosed(func() { s.Release(view) })
	s.maps[view.ID()] = vm
	return vm.m, nil
}

// Release drops the format map of view. It is a no-op for unknown views.
func (s *Service) Release(view *host.View) {
	if view == nil {
		return
	}

	s.mu.Lock()
	vm, ok := s.maps[view.ID()]
	delete(s.maps, view.ID())
	s.mu.Unlock()

	if ok {
		vm.sub.Unsubscribe()
		vm.m.close()
	}
}

// Theme returns the theme used for new maps.
func (s *Service) Theme() *Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme switches every live map, and every future one, to theme.
func (s *Service) SetTheme(theme *Theme) {
	if theme == nil {
		return
	}

	s.mu.Lock()
	s.theme = theme
	maps := make([]*Map, 0, len(s.maps))
	for _, vm := range s.maps {
		maps = append(maps, vm.m)
	}
	s.mu.Unlock()

	for _, m := range maps {
		m.SetTheme(theme)
	}
}

// Len returns the number of live format maps.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.maps)
}
