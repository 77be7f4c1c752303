package tagger

import (
	"sync"

	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/text"
)

// Source computes tags for a single view or buffer.
//
// Contract:
//   - Tags never fails: invalid or empty spans yield no tags, and so does
//     a disposed source.
//   - OnChanged observers are told when previously returned tags are stale.
//   - Close releases everything the source holds. It is idempotent and is
//     called by the owner of the source, never by adapters.
type Source interface {
	Tags(spans []text.Span) []TagSpan
	OnChanged(fn func(ChangeEvent)) *notify.Subscription
	Close() error
}

// Base carries the change notifier and disposal state shared by sources.
// Embed it and call Dispose from Close.
type Base struct {
	mu       sync.RWMutex
	disposed bool
	changed  notify.Notifier[ChangeEvent]
}

// OnChanged registers an observer for change events.
func (b *Base) OnChanged(fn func(ChangeEvent)) *notify.Subscription {
	return b.changed.Subscribe(fn)
}

// RaiseChanged notifies observers that tags over span are stale.
// It is a no-op once the source is disposed.
func (b *Base) RaiseChanged(span text.Span) {
	if b.IsDisposed() {
		return
	}
	b.changed.Notify(ChangeEvent{Span: span})
}

// RaiseAllChanged notifies observers that every tag is stale.
func (b *Base) RaiseAllChanged() {
	b.RaiseChanged(text.Span{})
}

// IsDisposed reports whether Dispose has run.
func (b *Base) IsDisposed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.disposed
}

// Dispose marks the source disposed, drops its observers and runs release
// once. Later calls return nil without running release.
func (b *Base) Dispose(release func() error) error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return nil
	}
	b.disposed = true
	b.mu.Unlock()

	b.changed.Close()
	if release != nil {
		return release()
	}
	return nil
}

// ValidSpans drops invalid spans and clamps the rest to n bytes.
func ValidSpans(spans []text.Span, n int) []text.Span {
	out := make([]text.Span, 0, len(spans))
	for _, s := range spans {
		if !s.IsValid() || s.Start > n {
			continue
		}
		out = append(out, s.Clamp(n))
	}
	return out
}
