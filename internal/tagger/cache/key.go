package cache

import (
	"strconv"
	"sync/atomic"

	"github.com/dshills/tagsource/internal/notify"
)

// Owner is a long-lived host object, such as a view or a buffer, that
// sources are scoped to. The cache never owns it; it only keys entries by
// ID and listens for OnClosed.
type Owner interface {
	// ID returns a stable identity, unique among live owners.
	ID() string

	// IsClosed reports whether the owner has been torn down.
	IsClosed() bool

	// OnClosed registers fn to run when the owner is torn down.
	OnClosed(fn func()) *notify.Subscription
}

var keySeq atomic.Uint64

// Key is an identity token that namespaces one feature's slot on an owner.
// Two keys are equal only if they are the same *Key; the name is for
// diagnostics.
type Key struct {
	id   uint64
	name string
}

// NewKey creates a new feature key.
func NewKey(name string) *Key {
	return &Key{id: keySeq.Add(1), name: name}
}

// Name returns the diagnostic name.
func (k *Key) Name() string {
	if k == nil {
		return ""
	}
	return k.name
}

// String returns the name and sequence number.
func (k *Key) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.name + "#" + strconv.FormatUint(k.id, 10)
}

// flightKey names the singleflight call for a slot.
func flightKey(ownerID string, key *Key) string {
	return ownerID + "\x00" + strconv.FormatUint(key.id, 10)
}
