package syntax

import (
	"errors"
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/tagger/cache"
)

// Key is the cache key of syntax sources. Sources are stored per buffer.
var Key = cache.NewKey("syntax")

// Factory hands out syntax classifiers for text buffers with a known lexer.
type Factory struct {
	cache    *cache.Cache
	registry *format.Registry
	enabled  func() bool
	logger   *logging.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithEnabled sets a switch consulted on every request.
func WithEnabled(enabled func() bool) Option {
	return func(f *Factory) {
		if enabled != nil {
			f.enabled = enabled
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory creates a factory storing its sources in c.
func NewFactory(c *cache.Cache, registry *format.Registry, opts ...Option) *Factory {
	f := &Factory{
		cache:    c,
		registry: registry,
		enabled:  func() bool { return true },
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LexerFor returns the lexer matching a buffer name, or nil.
func LexerFor(name string) chroma.Lexer {
	if name == "" {
		return nil
	}
	base := filepath.Base(name)
	lexer := lexers.Match(base)
	if lexer == nil {
		if ext := filepath.Ext(base); ext != "" {
			lexer = lexers.Get(ext[1:])
		}
	}
	return lexer
}

// Classifier returns a classifier for buffer. It returns nil and no error
// when the factory is disabled, the buffer is not open text, or no lexer
// matches its name.
func (f *Factory) Classifier(buffer *host.Buffer) (*tagger.Classifier, error) {
	if buffer == nil || buffer.IsClosed() || !f.enabled() {
		return nil, nil
	}
	if !buffer.ContentType().Matches(host.ContentTypeText) {
		return nil, nil
	}
	lexer := LexerFor(buffer.Name())
	if lexer == nil {
		return nil, nil
	}

	src, err := cache.Get(f.cache, buffer, Key, func() (*Source, error) {
		return NewSource(buffer, lexer, f.registry)
	})
	if err != nil {
		if errors.Is(err, cache.ErrOwnerClosed) {
			return nil, nil
		}
		f.logger.Warn("syntax source for %s: %v", buffer.Name(), err)
		return nil, err
	}
	return tagger.NewClassifier(src), nil
}
