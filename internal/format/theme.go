package format

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// StyleSpec describes a style using color names or hex values.
type StyleSpec struct {
	Foreground string `toml:"foreground" yaml:"foreground"`
	Background string `toml:"background" yaml:"background"`
	Bold       bool   `toml:"bold" yaml:"bold"`
	Dim        bool   `toml:"dim" yaml:"dim"`
	Italic     bool   `toml:"italic" yaml:"italic"`
	Underline  bool   `toml:"underline" yaml:"underline"`
}

// Theme maps classification names to styles.
type Theme struct {
	// Name is the display name of the theme.
	Name string `toml:"name" yaml:"name"`

	// Foreground is the default text color.
	Foreground string `toml:"foreground" yaml:"foreground"`

	// Background is the editor background color.
	Background string `toml:"background" yaml:"background"`

	// Styles maps classification names to their styles.
	Styles map[string]StyleSpec `toml:"styles" yaml:"styles"`
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() *Theme {
	return &Theme{
		Name:       "default",
		Foreground: "#d0d0d0",
		Background: "#1c1c1c",
		Styles: map[string]StyleSpec{
			ClassDirectory:         {Foreground: "#5f87d7", Bold: true},
			ClassControlChar:       {},
			ClassSyntaxKeyword:     {Foreground: "#d787d7", Bold: true},
			ClassSyntaxString:      {Foreground: "#87af5f"},
			ClassSyntaxComment:     {Foreground: "#808080", Italic: true},
			ClassSyntaxNumber:      {Foreground: "#d7875f"},
			ClassSyntaxOperator:    {Foreground: "#afafaf"},
			ClassSyntaxPunctuation: {Foreground: "#afafaf"},
			ClassSyntaxName:        {},
			ClassSyntaxFunction:    {Foreground: "#5fafd7"},
			ClassSyntaxType:        {Foreground: "#d7af5f"},
			ClassSyntaxLiteral:     {Foreground: "#d7875f"},
		},
	}
}

// Validate checks every color in the theme.
func (t *Theme) Validate() error {
	if _, err := parseColor(t.Foreground); err != nil {
		return fmt.Errorf("theme foreground: %w", err)
	}
	if _, err := parseColor(t.Background); err != nil {
		return fmt.Errorf("theme background: %w", err)
	}
	for name, spec := range t.Styles {
		if _, err := parseColor(spec.Foreground); err != nil {
			return fmt.Errorf("style %s foreground: %w", name, err)
		}
		if _, err := parseColor(spec.Background); err != nil {
			return fmt.Errorf("style %s background: %w", name, err)
		}
	}
	return nil
}

// Base returns the default text style of the theme.
func (t *Theme) Base() tcell.Style {
	fg, _ := parseColor(t.Foreground)
	bg, _ := parseColor(t.Background)
	return tcell.StyleDefault.Foreground(fg).Background(bg)
}

// Resolve returns the style for a classification name.
// Unknown names resolve to the base style.
func (t *Theme) Resolve(name string) tcell.Style {
	spec, ok := t.Styles[name]
	if !ok {
		return t.Base()
	}

	fg, _ := parseColor(spec.Foreground)
	if spec.Foreground == "" {
		fg, _ = parseColor(t.Foreground)
		if name == ClassControlChar {
			fg = t.subdued()
		}
	}
	bg, _ := parseColor(spec.Background)
	if spec.Background == "" {
		bg, _ = parseColor(t.Background)
	}

	return tcell.StyleDefault.
		Foreground(fg).
		Background(bg).
		Bold(spec.Bold).
		Dim(spec.Dim).
		Italic(spec.Italic).
		Underline(spec.Underline)
}

// subdued blends the foreground halfway toward the background.
func (t *Theme) subdued() tcell.Color {
	fg, err := parseColor(t.Foreground)
	if err != nil {
		return tcell.ColorDefault
	}
	bg, err := parseColor(t.Background)
	if err != nil || fg == tcell.ColorDefault || bg == tcell.ColorDefault {
		return fg
	}

	blended := toColorful(fg).BlendLab(toColorful(bg), 0.5).Clamped()
	r, g, b := blended.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func toColorful(c tcell.Color) colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// parseColor parses a color name or #rrggbb value.
// The empty string and "default" are the terminal default color.
func parseColor(s string) (tcell.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "default") {
		return tcell.ColorDefault, nil
	}
	c := tcell.GetColor(strings.ToLower(s))
	if c == tcell.ColorDefault {
		return tcell.ColorDefault, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}
	return c, nil
}
