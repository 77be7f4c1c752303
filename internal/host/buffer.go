package host

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/text"
)

// Change describes an edit applied to a buffer.
type Change struct {
	// Span covers the inserted text in post-edit coordinates.
	// A pure deletion yields an empty span at the deletion point.
	Span text.Span

	// Revision is the buffer revision after the edit.
	Revision uint64
}

// Buffer is a text buffer with change notification.
// All methods are safe for concurrent use.
type Buffer struct {
	id          string
	name        string
	contentType ContentType
	readOnly    bool

	mu       sync.RWMutex
	text     string
	revision uint64
	closed   bool

	changed notify.Notifier[Change]
	closing notify.Notifier[struct{}]
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithName sets the buffer name, usually a file path.
func WithName(name string) BufferOption {
	return func(b *Buffer) {
		b.name = name
	}
}

// WithContentType sets the buffer content type.
func WithContentType(ct ContentType) BufferOption {
	return func(b *Buffer) {
		if ct != "" {
			b.contentType = ct
		}
	}
}

// WithReadOnly marks the buffer read-only for policy purposes.
// Edits are still accepted programmatically.
func WithReadOnly(readOnly bool) BufferOption {
	return func(b *Buffer) {
		b.readOnly = readOnly
	}
}

// NewBuffer creates a buffer holding s.
func NewBuffer(s string, opts ...BufferOption) *Buffer {
	b := &Buffer{
		id:          uuid.NewString(),
		contentType: ContentTypeText,
		text:        s,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the buffer's unique identity.
func (b *Buffer) ID() string {
	return b.id
}

// Name returns the buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// ContentType returns the buffer content type.
func (b *Buffer) ContentType() ContentType {
	return b.contentType
}

// ReadOnly reports whether the buffer is marked read-only.
func (b *Buffer) ReadOnly() bool {
	return b.readOnly
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// Revision returns the current revision number.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Insert inserts s at offset.
func (b *Buffer) Insert(offset int, s string) error {
	return b.Replace(text.NewSpan(offset, offset), s)
}

// Delete removes the text covered by span.
func (b *Buffer) Delete(span text.Span) error {
	return b.Replace(span, "")
}

// Replace replaces the text covered by span with s.
func (b *Buffer) Replace(span text.Span, s string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if !span.IsValid() || span.End > len(b.text) {
		b.mu.Unlock()
		return ErrOffsetOutOfRange
	}

	b.text = b.text[:span.Start] + s + b.text[span.End:]
	b.revision++
	change := Change{
		Span:     text.NewSpan(span.Start, span.Start+len(s)),
		Revision: b.revision,
	}
	b.mu.Unlock()

	b.changed.Notify(change)
	return nil
}

// SetText replaces the whole buffer content.
func (b *Buffer) SetText(s string) error {
	return b.Replace(text.NewSpan(0, b.Len()), s)
}

// OnChanged registers an observer for edits.
func (b *Buffer) OnChanged(fn func(Change)) *notify.Subscription {
	return b.changed.Subscribe(fn)
}

// IsClosed reports whether the buffer has been closed.
func (b *Buffer) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// OnClosed registers fn to run once when the buffer closes.
func (b *Buffer) OnClosed(fn func()) *notify.Subscription {
	if fn == nil {
		return &notify.Subscription{}
	}
	return b.closing.Subscribe(func(struct{}) { fn() })
}

// Close closes the buffer. Closed observers run once, on the first call.
func (b *Buffer) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.closing.Notify(struct{}{})
	b.closing.Close()
	b.changed.Close()
}
