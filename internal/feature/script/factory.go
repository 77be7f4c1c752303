package script

import (
	"errors"
	"slices"
	"sync"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/tagger/cache"
)

// Key is the cache key of script sources. Sources are stored per buffer.
var Key = cache.NewKey("script")

// Factory hands out script classifiers for buffers of configured content
// types.
type Factory struct {
	cache    *cache.Cache
	registry *format.Registry
	logger   *logging.Logger

	mu           sync.RWMutex
	path         string
	contentTypes []host.ContentType
}

// NewFactory creates a factory with no script configured.
func NewFactory(c *cache.Cache, registry *format.Registry, logger *logging.Logger) *Factory {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Factory{
		cache:        c,
		registry:     registry,
		logger:       logger,
		contentTypes: []host.ContentType{host.ContentTypeText},
	}
}

// Configure sets the script path and the content types it applies to.
// An empty path disables the factory and empty contentTypes means text
// only. Sources already built keep the script they loaded.
func (f *Factory) Configure(path string, contentTypes []string) {
	types := make([]host.ContentType, 0, len(contentTypes))
	for _, ct := range contentTypes {
		types = append(types, host.ContentType(ct))
	}
	if len(types) == 0 {
		types = append(types, host.ContentTypeText)
	}

	f.mu.Lock()
	f.path = path
	f.contentTypes = types
	f.mu.Unlock()
}

// Path returns the configured script path.
func (f *Factory) Path() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.path
}

// Classifier returns a script classifier for buffer. It returns nil and
// no error when no script is configured, the buffer is closed, or its
// content type is not configured. A script that fails to load is an error
// and is retried on the next request.
func (f *Factory) Classifier(buffer *host.Buffer) (*tagger.Classifier, error) {
	f.mu.RLock()
	path := f.path
	applies := buffer != nil && slices.ContainsFunc(f.contentTypes, func(ct host.ContentType) bool {
		return buffer.ContentType().Matches(ct)
	})
	f.mu.RUnlock()

	if path == "" || !applies || buffer.IsClosed() {
		return nil, nil
	}

	src, err := cache.Get(f.cache, buffer, Key, func() (*Source, error) {
		return NewSource(buffer, path, f.registry, f.logger)
	})
	if err != nil {
		if errors.Is(err, cache.ErrOwnerClosed) {
			return nil, nil
		}
		f.logger.Warn("script source for %s: %v", buffer.Name(), err)
		return nil, err
	}
	return tagger.NewClassifier(src), nil
}
