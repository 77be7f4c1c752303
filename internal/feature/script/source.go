package script

import (
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/text"
)

// Source classifies the lines of one buffer by calling a Lua script.
type Source struct {
	tagger.Base

	buffer   *host.Buffer
	registry *format.Registry
	timeout  time.Duration
	logger   *logging.Logger
	sub      *notify.Subscription

	// mu serializes access to L, which is not safe for concurrent use.
	mu sync.Mutex
	L  *lua.LState
}

// NewSource loads the script at path into a fresh Lua state.
func NewSource(buffer *host.Buffer, path string, registry *format.Registry, logger *logging.Logger) (*Source, error) {
	L, err := newState(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Source{
		buffer:   buffer,
		registry: registry,
		timeout:  DefaultTimeout,
		logger:   logger,
		L:        L,
	}
	s.sub = buffer.OnChanged(func(c host.Change) {
		s.RaiseChanged(text.LineSpan(buffer.Text(), c.Span))
	})
	return s, nil
}

// Tags classifies every line overlapping spans.
// Lines the script rejects, fails on, or names an unknown classification
// for yield no tag.
func (s *Source) Tags(spans []text.Span) []tagger.TagSpan {
	if s.IsDisposed() {
		return nil
	}

	content := s.buffer.Text()
	var out []tagger.TagSpan
	seen := make(map[int]bool)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.L == nil {
		return nil
	}

	for _, span := range tagger.ValidSpans(spans, len(content)) {
		for _, line := range text.Lines(content, span) {
			if seen[line.Number] {
				continue
			}
			seen[line.Number] = true

			if ts, ok := s.classify(line); ok {
				out = append(out, ts)
			}
		}
	}
	return out
}

func (s *Source) classify(line text.Line) (tagger.TagSpan, bool) {
	lineno := line.Number + 1
	m, ok, err := call(s.L, s.timeout, line.Text, lineno)
	if err != nil {
		s.logger.Debug("classify line %d of %s: %v", lineno, s.buffer.Name(), err)
		return tagger.TagSpan{}, false
	}
	if !ok {
		return tagger.TagSpan{}, false
	}

	ct, err := s.registry.Lookup(m.name)
	if err != nil {
		s.logger.Debug("classify line %d of %s: %v", lineno, s.buffer.Name(), err)
		return tagger.TagSpan{}, false
	}

	span := line.Span
	if !m.whole {
		if m.first < 1 || m.last < m.first || m.first > len(line.Text) {
			return tagger.TagSpan{}, false
		}
		last := min(m.last, len(line.Text))
		span = text.NewSpan(line.Span.Start+m.first-1, line.Span.Start+last)
	}
	return tagger.TagSpan{Span: span, Tag: tagger.ClassificationTag{Type: ct}}, true
}

// Close stops following the buffer and closes the Lua state.
func (s *Source) Close() error {
	return s.Dispose(func() error {
		s.sub.Unsubscribe()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.L != nil {
			s.L.Close()
			s.L = nil
		}
		return nil
	})
}
