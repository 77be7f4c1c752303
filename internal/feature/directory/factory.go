package directory

import (
	"errors"
	"fmt"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/tagger/cache"
)

// Key is the cache key of directory sources. Sources are stored per buffer.
var Key = cache.NewKey("directory")

// Factory hands out classifiers for directory listing buffers.
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

// NewFactory creates a factory storing its sources in c and resolving the
// directory classification from registry.
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

// TagKinds returns the tag kinds this factory can produce.
func (f *Factory) TagKinds() []tagger.TagKind {
	return []tagger.TagKind{tagger.KindClassification}
}

// Classifier returns a classifier for buffer, or nil and no error when the
// buffer is not an open directory listing.
func (f *Factory) Classifier(buffer *host.Buffer) (*tagger.Classifier, error) {
	src, err := f.source(buffer)
	if src == nil || err != nil {
		return nil, err
	}
	return tagger.NewClassifier(src), nil
}

// CreateTagger returns a classification tagger for buffer shown in an
// interactive view. Inapplicable requests yield nil and no error.
func (f *Factory) CreateTagger(kind tagger.TagKind, view *host.View, buffer *host.Buffer) (*tagger.Tagger, error) {
	if !tagger.Supports(f.TagKinds(), kind) {
		return nil, nil
	}
	if view == nil || view.IsClosed() || view.Buffer() != buffer {
		return nil, nil
	}
	if !view.HasRole(host.RoleInteractive) {
		return nil, nil
	}

	src, err := f.source(buffer)
	if src == nil || err != nil {
		return nil, err
	}
	return tagger.NewTagger(src, kind), nil
}

func (f *Factory) source(buffer *host.Buffer) (*Source, error) {
	if buffer == nil || buffer.IsClosed() || !f.enabled() {
		return nil, nil
	}
	if !buffer.ContentType().Matches(host.ContentTypeDirectory) {
		return nil, nil
	}

	src, err := cache.Get(f.cache, buffer, Key, func() (*Source, error) {
		classType, err := f.registry.Lookup(format.ClassDirectory)
		if err != nil {
			return nil, fmt.Errorf("directory classification: %w", err)
		}
		return NewSource(buffer, classType), nil
	})
	if err != nil {
		if errors.Is(err, cache.ErrOwnerClosed) {
			return nil, nil
		}
		f.logger.Warn("directory source for buffer %s: %v", buffer.ID(), err)
		return nil, err
	}
	return src, nil
}
