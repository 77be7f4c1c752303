package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/logging"
)

// Notations accepted by CharDisplayConfig.Notation.
const (
	NotationCaret = "caret"
	NotationHex   = "hex"
	NotationName  = "name"
)

// Config is the complete tagger configuration.
type Config struct {
	Log         LogConfig         `toml:"log" yaml:"log"`
	CharDisplay CharDisplayConfig `toml:"char_display" yaml:"char_display"`
	Directory   DirectoryConfig   `toml:"directory" yaml:"directory"`
	Syntax      SyntaxConfig      `toml:"syntax" yaml:"syntax"`
	Script      ScriptConfig      `toml:"script" yaml:"script"`
	Activation  ActivationConfig  `toml:"activation" yaml:"activation"`
	Theme       format.Theme      `toml:"theme" yaml:"theme"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// CharDisplayConfig configures control character adornments.
type CharDisplayConfig struct {
	// Enabled turns the adornments on.
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// Notation selects how characters are shown: caret, hex or name.
	Notation string `toml:"notation" yaml:"notation"`

	// Unicode also shows C1 controls and invisible format characters.
	Unicode bool `toml:"unicode" yaml:"unicode"`
}

// DirectoryConfig configures directory listing classification.
type DirectoryConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// SyntaxConfig configures lexer-based classification.
type SyntaxConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// ScriptConfig configures the Lua classifier.
type ScriptConfig struct {
	// Path is the Lua script defining classify(line, lineno).
	// Empty disables the script classifier.
	Path string `toml:"path" yaml:"path"`

	// ContentTypes limits the classifier to these buffer content types.
	// Empty means text only.
	ContentTypes []string `toml:"content_types" yaml:"content_types"`
}

// ActivationConfig configures the activation policy.
type ActivationConfig struct {
	// Expr is an expr-lang expression over the view; empty means always.
	Expr string `toml:"expr" yaml:"expr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		CharDisplay: CharDisplayConfig{
			Enabled:  true,
			Notation: NotationCaret,
			Unicode:  true,
		},
		Directory: DirectoryConfig{Enabled: true},
		Syntax:    SyntaxConfig{Enabled: true},
		Theme:     *format.DefaultTheme(),
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Script.ContentTypes = slices.Clone(c.Script.ContentTypes)
	out.Theme.Styles = maps.Clone(c.Theme.Styles)
	return &out
}

// Validate checks every setting.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}

	switch c.CharDisplay.Notation {
	case NotationCaret, NotationHex, NotationName:
	default:
		return &ValidationError{Path: "char_display.notation", Message: fmt.Sprintf("unknown notation %q", c.CharDisplay.Notation)}
	}

	if err := c.Theme.Validate(); err != nil {
		return &ValidationError{Path: "theme", Message: err.Error()}
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}
