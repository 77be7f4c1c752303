package format

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tagsource/internal/notify"
)

// MapChange describes a format map update.
type MapChange struct {
	// Names lists the changed classifications. Empty means all of them.
	Names []string
}

// Map is the format map of a single view: classification name to style.
// Explicit overrides win over the theme.
type Map struct {
	mu        sync.RWMutex
	theme     *Theme
	overrides map[string]tcell.Style
	changed   notify.Notifier[MapChange]
}

// NewMap creates a format map seeded from theme.
func NewMap(theme *Theme) *Map {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Map{
		theme:     theme,
		overrides: make(map[string]tcell.Style),
	}
}

// Style returns the style for a classification name.
func (m *Map) Style(name string) tcell.Style {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if style, ok := m.overrides[name]; ok {
		return style
	}
	return m.theme.Resolve(name)
}

// Set overrides the style for name.
func (m *Map) Set(name string, style tcell.Style) {
	m.mu.Lock()
	m.overrides[name] = style
	m.mu.Unlock()

	m.changed.Notify(MapChange{Names: []string{name}})
}

// SetTheme replaces the theme and drops every override.
func (m *Map) SetTheme(theme *Theme) {
	if theme == nil {
		return
	}

	m.mu.Lock()
	m.theme = theme
	m.overrides = make(map[string]tcell.Style)
	m.mu.Unlock()

	m.changed.Notify(MapChange{})
}

// OnChanged registers an observer for map updates.
func (m *Map) OnChanged(fn func(MapChange)) *notify.Subscription {
	return m.changed.Subscribe(fn)
}

func (m *Map) close() {
	m.changed.Close()
}
