package host

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/tagsource/internal/notify"
)

// View displays a single buffer.
type View struct {
	id     string
	buffer *Buffer
	roles  []Role

	mu      sync.RWMutex
	closed  bool
	closing notify.Notifier[struct{}]
}

// NewView creates a view over buffer. With no roles, DefaultRoles are used.
func NewView(buffer *Buffer, roles ...Role) *View {
	if len(roles) == 0 {
		roles = DefaultRoles()
	}
	return &View{
		id:     uuid.NewString(),
		buffer: buffer,
		roles:  slices.Clone(roles),
	}
}

// ID returns the view's unique identity.
func (v *View) ID() string {
	return v.id
}

// Buffer returns the view's own buffer.
func (v *View) Buffer() *Buffer {
	return v.buffer
}

// Roles returns a copy of the view roles.
func (v *View) Roles() []Role {
	return slices.Clone(v.roles)
}

// HasRole reports whether the view carries role.
func (v *View) HasRole(role Role) bool {
	return slices.Contains(v.roles, role)
}

// IsClosed reports whether the view has been closed.
func (v *View) IsClosed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

// OnClosed registers fn to run once when the view closes.
func (v *View) OnClosed(fn func()) *notify.Subscription {
	if fn == nil {
		return &notify.Subscription{}
	}
	return v.closing.Subscribe(func(struct{}) { fn() })
}

// Close closes the view. The buffer is left open; buffers may outlive views.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.closing.Notify(struct{}{})
	v.closing.Close()
}
