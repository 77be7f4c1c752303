package tagger

import (
	"sync"

	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/text"
)

// disposedChecker is implemented by sources embedding Base.
type disposedChecker interface {
	IsDisposed() bool
}

// Tagger is the caller-facing adapter over a shared Source.
// Each request gets its own Tagger; many may wrap the same Source.
type Tagger struct {
	source Source
	kind   TagKind

	mu      sync.Mutex
	closed  bool
	sub     *notify.Subscription
	changed notify.Notifier[ChangeEvent]
}

// NewTagger wraps source, exposing tags of the given kind.
// The tagger subscribes to the source until Close is called.
func NewTagger(source Source, kind TagKind) *Tagger {
	t := &Tagger{
		source: source,
		kind:   kind,
	}
	t.sub = source.OnChanged(t.relay)
	return t
}

// Kind returns the kind of tags this tagger exposes.
func (t *Tagger) Kind() TagKind {
	return t.kind
}

// Tags returns the tags of this tagger's kind over spans.
// After Close, or once the source is disposed, it returns nil.
func (t *Tagger) Tags(spans []text.Span) []TagSpan {
	if t.isClosed() || sourceDisposed(t.source) {
		return nil
	}

	tags := t.source.Tags(spans)
	if len(tags) == 0 {
		return nil
	}

	out := tags[:0:0]
	for _, ts := range tags {
		if ts.Tag != nil && ts.Tag.Kind() == t.kind {
			out = append(out, ts)
		}
	}
	return out
}

// OnTagsChanged registers an observer for this tagger's change events.
func (t *Tagger) OnTagsChanged(fn func(ChangeEvent)) *notify.Subscription {
	return t.changed.Subscribe(fn)
}

// Close detaches the tagger from its source. The source itself stays alive.
// It is safe to call Close more than once.
func (t *Tagger) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	sub := t.sub
	t.mu.Unlock()

	sub.Unsubscribe()
	t.changed.Close()
}

func (t *Tagger) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tagger) relay(e ChangeEvent) {
	if t.isClosed() {
		return
	}
	t.changed.Notify(e)
}

func sourceDisposed(s Source) bool {
	if d, ok := s.(disposedChecker); ok {
		return d.IsDisposed()
	}
	return false
}
