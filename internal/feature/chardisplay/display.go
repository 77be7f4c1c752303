package chardisplay

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/runenames"

	"github.com/dshills/tagsource/internal/config"
	"github.com/dshills/tagsource/internal/notify"
)

// Notation selects how a character is rendered.
type Notation string

// Supported notations.
const (
	NotationCaret Notation = config.NotationCaret
	NotationHex   Notation = config.NotationHex
	NotationName  Notation = config.NotationName
)

// ParseNotation parses a notation name.
func ParseNotation(s string) (Notation, error) {
	switch n := Notation(strings.ToLower(s)); n {
	case NotationCaret, NotationHex, NotationName:
		return n, nil
	}
	return "", fmt.Errorf("unknown notation %q", s)
}

// c0Names are the ASCII abbreviations of the C0 control characters.
var c0Names = [...]string{
	"NUL", "SOH", "STX", "ETX", "EOT", "ENQ", "ACK", "BEL",
	"BS", "HT", "LF", "VT", "FF", "CR", "SO", "SI",
	"DLE", "DC1", "DC2", "DC3", "DC4", "NAK", "SYN", "ETB",
	"CAN", "EM", "SUB", "ESC", "FS", "GS", "RS", "US",
}

// Display decides which characters are shown and how.
// All methods are safe for concurrent use.
type Display struct {
	mu       sync.RWMutex
	enabled  bool
	notation Notation
	unicode  bool

	changed notify.Notifier[struct{}]
}

// NewDisplay returns an enabled display using caret notation with unicode
// characters shown.
func NewDisplay() *Display {
	return &Display{
		enabled:  true,
		notation: NotationCaret,
		unicode:  true,
	}
}

// Enabled reports whether adornments are shown at all.
func (d *Display) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// Notation returns the active notation.
func (d *Display) Notation() Notation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.notation
}

// Unicode reports whether C1 controls and invisible characters are shown.
func (d *Display) Unicode() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.unicode
}

// SetEnabled turns adornments on or off.
func (d *Display) SetEnabled(enabled bool) {
	d.update(func() bool {
		changed := d.enabled != enabled
		d.enabled = enabled
		return changed
	})
}

// SetNotation changes the notation.
func (d *Display) SetNotation(n Notation) {
	d.update(func() bool {
		changed := d.notation != n
		d.notation = n
		return changed
	})
}

// SetUnicode changes whether unicode characters are shown.
func (d *Display) SetUnicode(unicode bool) {
	d.update(func() bool {
		changed := d.unicode != unicode
		d.unicode = unicode
		return changed
	})
}

// Apply copies settings from cfg, raising a single change if any differ.
// An unknown notation leaves the current one in place.
func (d *Display) Apply(cfg config.CharDisplayConfig) {
	n, err := ParseNotation(cfg.Notation)
	d.update(func() bool {
		if err != nil {
			n = d.notation
		}
		changed := d.enabled != cfg.Enabled || d.notation != n || d.unicode != cfg.Unicode
		d.enabled = cfg.Enabled
		d.notation = n
		d.unicode = cfg.Unicode
		return changed
	})
}

// OnChanged registers an observer for setting changes.
func (d *Display) OnChanged(fn func()) *notify.Subscription {
	if fn == nil {
		return &notify.Subscription{}
	}
	return d.changed.Subscribe(func(struct{}) { fn() })
}

func (d *Display) update(apply func() bool) {
	d.mu.Lock()
	changed := apply()
	d.mu.Unlock()

	if changed {
		d.changed.Notify(struct{}{})
	}
}

// Text returns the adornment text for r, and false when r is shown as is.
// The enabled flag is not consulted.
func (d *Display) Text(r rune) (string, bool) {
	d.mu.RLock()
	notation, unicode := d.notation, d.unicode
	d.mu.RUnlock()

	if !isControl(r) && !(unicode && isUnicodeSpecial(r)) {
		return "", false
	}

	switch notation {
	case NotationCaret:
		switch {
		case r < 0x20:
			return "^" + string(r+'@'), true
		case r == 0x7f:
			return "^?", true
		}
	case NotationName:
		return "<" + runeName(r) + ">", true
	}
	return hex(r), true
}

// isControl reports C0 controls other than tab and line breaks, and DEL.
func isControl(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r >= 0 && r < 0x20:
		return true
	}
	return r == 0x7f
}

// isUnicodeSpecial reports C1 controls and invisible format characters.
func isUnicodeSpecial(r rune) bool {
	switch {
	case r >= 0x80 && r <= 0x9f:
		return true
	case r >= 0x200b && r <= 0x200f:
		return true
	}
	switch r {
	case 0x2028, 0x2029, 0xfeff, 0x00ad:
		return true
	}
	return false
}

func runeName(r rune) string {
	switch {
	case r >= 0 && int(r) < len(c0Names):
		return c0Names[r]
	case r == 0x7f:
		return "DEL"
	}
	if name := runenames.Name(r); name != "" && !strings.HasPrefix(name, "<") {
		return name
	}
	return strings.Trim(hex(r), "<>")
}

func hex(r rune) string {
	if r <= 0xff {
		return fmt.Sprintf("<%02x>", r)
	}
	return fmt.Sprintf("<%04x>", r)
}
