package chardisplay

import (
	"errors"
	"fmt"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/policy"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/tagger/cache"
)

// FormatProvider supplies the format map of a view.
// *format.Service implements it.
type FormatProvider interface {
	ForView(view *host.View) (*format.Map, error)
}

// Factory hands out adornment taggers for editable views.
type Factory struct {
	key     *cache.Key
	cache   *cache.Cache
	formats FormatProvider
	display *Display
	policy  policy.Policy
	logger  *logging.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithPolicy sets the activation policy. The default is policy.Always.
func WithPolicy(p policy.Policy) Option {
	return func(f *Factory) {
		if p != nil {
			f.policy = p
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
func NewFactory(c *cache.Cache, formats FormatProvider, display *Display, opts ...Option) *Factory {
	f := &Factory{
		key:     cache.NewKey("chardisplay"),
		cache:   c,
		formats: formats,
		display: display,
		policy:  policy.Always,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Key returns the cache key of this factory's sources.
func (f *Factory) Key() *cache.Key {
	return f.key
}

// TagKinds returns the tag kinds this factory can produce.
func (f *Factory) TagKinds() []tagger.TagKind {
	return []tagger.TagKind{tagger.KindAdornment}
}

// CreateTagger returns a tagger for buffer as shown in view.
//
// It returns nil and no error when the request does not apply: an
// unsupported kind, a buffer that is not the view's own, a closed view, a
// view without the editable role, or a policy refusal. Errors are returned
// only when a dependency of the source cannot be obtained.
func (f *Factory) CreateTagger(kind tagger.TagKind, view *host.View, buffer *host.Buffer) (*tagger.Tagger, error) {
	if !tagger.Supports(f.TagKinds(), kind) {
		return nil, nil
	}
	if view == nil || buffer == nil || view.Buffer() != buffer {
		return nil, nil
	}
	if view.IsClosed() || buffer.IsClosed() {
		return nil, nil
	}
	if !view.HasRole(host.RoleEditable) || !f.policy.ShouldActivate(view) {
		return nil, nil
	}

	src, err := cache.Get(f.cache, view, f.key, func() (*Source, error) {
		fmap, err := f.formats.ForView(view)
		if err != nil {
			return nil, fmt.Errorf("format map for view %s: %w", view.ID(), err)
		}
		return NewSource(view, fmap, f.display), nil
	})
	if err != nil {
		if errors.Is(err, cache.ErrOwnerClosed) {
			return nil, nil
		}
		f.logger.Warn("char display source for view %s: %v", view.ID(), err)
		return nil, err
	}

	return tagger.NewTagger(src, kind), nil
}
