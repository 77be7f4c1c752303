package cache

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/tagger"
)

// Cache stores tagger sources per owner and feature key.
type Cache struct {
	mu     sync.Mutex
	owners map[string]*ownerEntry
	closed bool

	// group collapses concurrent constructions of the same slot
	group singleflight.Group

	logger  *logging.Logger
	meter   metric.Meter
	metrics *metrics
}

// ownerEntry holds every slot stored for one owner.
type ownerEntry struct {
	owner Owner
	slots map[*Key]tagger.Source
	sub   *notify.Subscription
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMeter sets the OpenTelemetry meter used for cache metrics.
func WithMeter(m metric.Meter) Option {
	return func(c *Cache) {
		c.meter = m
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		owners: make(map[string]*ownerEntry),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("tagger.cache")

	m, err := newMetrics(c.meter)
	if err != nil {
		c.logger.Warn("metrics disabled: %v", err)
		m, _ = newMetrics(noop.NewMeterProvider().Meter(meterName))
	}
	c.metrics = m

	return c
}

// GetOrCreate returns the source stored for (owner, key), running create
// to build and store it when there is none.
//
// create runs at most once per successful slot; concurrent callers for the
// same slot wait for and share its result. A failed construction stores
// nothing and is returned as a *ConstructError.
func (c *Cache) GetOrCreate(owner Owner, key *Key, create func() (tagger.Source, error)) (tagger.Source, error) {
	if err := validate(owner, key); err != nil {
		return nil, err
	}
	if create == nil {
		return nil, ErrNilConstructor
	}
	if c.isClosed() {
		return nil, ErrClosed
	}
	if owner.IsClosed() {
		return nil, ErrOwnerClosed
	}

	if src, ok := c.Lookup(owner, key); ok {
		c.metrics.hit(key)
		return src, nil
	}

	v, err, _ := c.group.Do(flightKey(owner.ID(), key), func() (any, error) {
		// An earlier flight may have stored the slot after our lookup
		if src, ok := c.Lookup(owner, key); ok {
			c.metrics.hit(key)
			return src, nil
		}
		return c.construct(owner, key, create)
	})
	if err != nil {
		return nil, err
	}
	return v.(tagger.Source), nil
}

// construct builds a source and stores it.
func (c *Cache) construct(owner Owner, key *Key, create func() (tagger.Source, error)) (tagger.Source, error) {
	c.metrics.miss(key)
	id := owner.ID()

	src, err := create()
	if err == nil && isNil(src) {
		err = ErrNilSource
	}
	if err != nil {
		c.metrics.constructFailed(key)
		c.logger.WithField("key", key).Debug("construct failed for %s: %v", id, err)
		return nil, &ConstructError{Key: key, OwnerID: id, Err: err}
	}

	c.mu.Lock()
	if c.closed || owner.IsClosed() {
		cacheClosed := c.closed
		c.mu.Unlock()
		_ = src.Close()
		if cacheClosed {
			return nil, ErrClosed
		}
		return nil, ErrOwnerClosed
	}
	entry, ok := c.owners[id]
	fresh := !ok
	if fresh {
		entry = &ownerEntry{owner: owner, slots: make(map[*Key]tagger.Source)}
		c.owners[id] = entry
	}
	entry.slots[key] = src
	c.mu.Unlock()

	c.metrics.stored(key)
	c.logger.WithField("key", key).Debug("created source for %s", id)

	if fresh {
		// Registered outside the lock; owners may call back synchronously.
		sub := owner.OnClosed(func() { c.Release(owner) })
		c.mu.Lock()
		current := c.owners[id] == entry
		if current {
			entry.sub = sub
		}
		c.mu.Unlock()
		if !current {
			sub.Unsubscribe()
		}
	}

	// The owner may have closed before the teardown hook was registered
	if owner.IsClosed() {
		c.Release(owner)
		return nil, ErrOwnerClosed
	}
	return src, nil
}

// Get is GetOrCreate for a concrete source type.
func Get[S tagger.Source](c *Cache, owner Owner, key *Key, create func() (S, error)) (S, error) {
	var zero S
	if create == nil {
		return zero, ErrNilConstructor
	}

	src, err := c.GetOrCreate(owner, key, func() (tagger.Source, error) {
		s, err := create()
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		return zero, err
	}

	s, ok := src.(S)
	if !ok {
		return zero, fmt.Errorf("slot %s holds %T: %w", key, src, ErrKeyTypeMismatch)
	}
	return s, nil
}

// Lookup returns the source stored for (owner, key) without creating one.
func (c *Cache) Lookup(owner Owner, key *Key) (tagger.Source, bool) {
	if validate(owner, key) != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.owners[owner.ID()]
	if !ok {
		return nil, false
	}
	src, ok := entry.slots[key]
	return src, ok
}

// Invalidate removes and disposes the source stored for (owner, key).
// It reports whether a source was removed.
func (c *Cache) Invalidate(owner Owner, key *Key) bool {
	if validate(owner, key) != nil {
		return false
	}

	c.mu.Lock()
	entry, ok := c.owners[owner.ID()]
	if !ok {
		c.mu.Unlock()
		return false
	}
	src, ok := entry.slots[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(entry.slots, key)
	empty := len(entry.slots) == 0
	if empty {
		delete(c.owners, owner.ID())
	}
	c.mu.Unlock()

	if empty {
		entry.sub.Unsubscribe()
	}
	c.dispose(owner.ID(), key, src)
	return true
}

// Release removes and disposes every source stored for owner.
// It returns the number of sources disposed; releasing an unknown or
// already released owner is a no-op.
func (c *Cache) Release(owner Owner) int {
	if owner == nil || isNil(owner) {
		return 0
	}

	c.mu.Lock()
	entry, ok := c.owners[owner.ID()]
	delete(c.owners, owner.ID())
	c.mu.Unlock()

	if !ok {
		return 0
	}
	entry.sub.Unsubscribe()
	return c.disposeEntry(entry)
}

// Owners returns the number of owners with at least one source.
func (c *Cache) Owners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owners)
}

// Len returns the number of stored sources.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, entry := range c.owners {
		n += len(entry.slots)
	}
	return n
}

// Close releases every owner. Later GetOrCreate calls fail with ErrClosed.
// It is safe to call Close multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	entries := make([]*ownerEntry, 0, len(c.owners))
	for _, entry := range c.owners {
		entries = append(entries, entry)
	}
	c.owners = make(map[string]*ownerEntry)
	c.mu.Unlock()

	for _, entry := range entries {
		entry.sub.Unsubscribe()
		c.disposeEntry(entry)
	}
}

func (c *Cache) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// disposeEntry disposes every slot of a removed entry in key order.
func (c *Cache) disposeEntry(entry *ownerEntry) int {
	keys := make([]*Key, 0, len(entry.slots))
	for key := range entry.slots {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b *Key) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		default:
			return 0
		}
	})

	for _, key := range keys {
		c.dispose(entry.owner.ID(), key, entry.slots[key])
	}
	return len(keys)
}

// dispose closes a source that has already been removed from the table.
// Errors are logged, never returned to the owner's teardown.
func (c *Cache) dispose(ownerID string, key *Key, src tagger.Source) {
	c.metrics.disposed(key)
	if err := src.Close(); err != nil {
		c.logger.WithField("key", key).Warn("dispose failed for %s: %v", ownerID, err)
		return
	}
	c.logger.WithField("key", key).Debug("disposed source for %s", ownerID)
}

func validate(owner Owner, key *Key) error {
	if owner == nil || isNil(owner) {
		return ErrNilOwner
	}
	if key == nil {
		return ErrNilKey
	}
	return nil
}

// isNil reports whether v is nil or a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
