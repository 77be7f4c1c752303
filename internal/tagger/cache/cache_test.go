package cache

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/text"
)

// testOwner is a minimal Owner.
type testOwner struct {
	id      string
	mu      sync.Mutex
	closed  bool
	closing notify.Notifier[struct{}]
}

func newTestOwner(id string) *testOwner {
	return &testOwner{id: id}
}

func (o *testOwner) ID() string { return o.id }

func (o *testOwner) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *testOwner) OnClosed(fn func()) *notify.Subscription {
	return o.closing.Subscribe(func(struct{}) { fn() })
}

// Close raises the closed notification on every call, like a host that
// signals teardown more than once.
func (o *testOwner) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.closing.Notify(struct{}{})
}

// testSource counts Close calls.
type testSource struct {
	tagger.Base
	name     string
	closes   atomic.Int32
	closeErr error
}

func (s *testSource) Tags(spans []text.Span) []tagger.TagSpan {
	if s.IsDisposed() {
		return nil
	}
	var out []tagger.TagSpan
	for _, span := range spans {
		out = append(out, tagger.TagSpan{Span: span, Tag: tagger.AdornmentTag{Text: s.name}})
	}
	return out
}

func (s *testSource) Close() error {
	s.closes.Add(1)
	return s.Dispose(func() error { return s.closeErr })
}

// otherSource is a second Source type for type mismatch checks.
type otherSource struct {
	tagger.Base
}

func (s *otherSource) Tags([]text.Span) []tagger.TagSpan { return nil }
func (s *otherSource) Close() error                        { return s.Dispose(nil) }

// counter returns a constructor that counts invocations.
func counter(name string, calls *atomic.Int32) func() (tagger.Source, error) {
	return func() (tagger.Source, error) {
		calls.Add(1)
		return &testSource{name: name}, nil
	}
}

func TestGetOrCreate_AtMostOneSource(t *testing.T) {
	c := New()
	owner := newTestOwner("view-a")
	key := NewKey("chardisplay")

	var calls atomic.Int32
	var first tagger.Source
	for i := 0; i < 10; i++ {
		src, err := c.GetOrCreate(owner, key, counter("x", &calls))
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if first == nil {
			first = src
		}
		if src != first {
			t.Fatalf("call %d returned a different source", i)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 construction, got %d", calls.Load())
	}
	if c.Len() != 1 || c.Owners() != 1 {
		t.Errorf("expected 1 source on 1 owner, got %d on %d", c.Len(), c.Owners())
	}
}

func TestGetOrCreate_KeyIsolation(t *testing.T) {
	c := New()
	owner := newTestOwner("view-a")
	k1 := NewKey("feature")
	k2 := NewKey("feature")

	var calls1, calls2 atomic.Int32
	s1, err := c.GetOrCreate(owner, k1, counter("one", &calls1))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := c.GetOrCreate(owner, k2, counter("two", &calls2))
	if err != nil {
		t.Fatal(err)
	}

	if s1 == s2 {
		t.Error("different keys must not share a source")
	}
	if calls1.Load() != 1 || calls2.Load() != 1 {
		t.Errorf("expected one construction per key, got %d and %d", calls1.Load(), calls2.Load())
	}
	if c.Len() != 2 || c.Owners() != 1 {
		t.Errorf("expected 2 sources on 1 owner, got %d on %d", c.Len(), c.Owners())
	}
}

func TestGetOrCreate_OwnerIsolation(t *testing.T) {
	c := New()
	key := NewKey("feature")

	var calls atomic.Int32
	a, _ := c.GetOrCreate(newTestOwner("a"), key, counter("x", &calls))
	b, _ := c.GetOrCreate(newTestOwner("b"), key, counter("x", &calls))

	if a == b || calls.Load() != 2 {
		t.Errorf("owners must get their own sources (constructions=%d)", calls.Load())
	}
}

func TestRelease_TeardownDisposesOnce(t *testing.T) {
	c := New()
	owner := newTestOwner("view-a")
	key := NewKey("chardisplay")

	src, err := Get(c, owner, key, func() (*testSource, error) {
		return &testSource{name: "x"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	owner.Close()
	owner.Close()

	if n := c.Release(owner); n != 0 {
		t.Errorf("expected release after teardown to be a no-op, disposed %d", n)
	}
	if src.closes.Load() != 1 {
		t.Errorf("expected source to be closed once, got %d", src.closes.Load())
	}
	if c.Len() != 0 || c.Owners() != 0 {
		t.Errorf("expected empty cache, got %d sources on %d owners", c.Len(), c.Owners())
	}
	if _, ok := c.Lookup(owner, key); ok {
		t.Error("lookup after teardown should miss")
	}
}

func TestRelease_Explicit(t *testing.T) {
	c := New()
	owner := newTestOwner("view-a")

	s1, _ := Get(c, owner, NewKey("a"), func() (*testSource, error) { return &testSource{}, nil })
	s2, _ := Get(c, owner, NewKey("b"), func() (*testSource, error) { return &testSource{}, nil })

	if n := c.Release(owner); n != 2 {
		t.Errorf("expected 2 disposals, got %d", n)
	}
	if n := c.Release(owner); n != 0 {
		t.Errorf("expected second release to be a no-op, got %d", n)
	}

	// The owner's teardown hook was removed by the explicit release.
	owner.Close()

	if s1.closes.Load() != 1 || s2.closes.Load() != 1 {
		t.Errorf("expected each source closed once, got %d and %d", s1.closes.Load(), s2.closes.Load())
	}
	if owner.closing.Len() != 0 {
		t.Errorf("expected teardown hook to be unsubscribed, %d remain", owner.closing.Len())
	}
}

func TestGetOrCreate_FailedConstructionIsRetryable(t *testing.T) {
	c := New()
	owner := newTestOwner("view-a")
	key := NewKey("chardisplay")
	boom := errors.New("format map unavailable")

	_, err := c.GetOrCreate(owner, key, func() (tagger.Source, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped constructor error, got %v", err)
	}
	var cerr *ConstructError
	if !errors.As(err, &cerr) || cerr.Key != key || cerr.OwnerID != "view-a" {
		t.Errorf("expected *ConstructError for the slot, got %#v", err)
	}
	if c.Len() != 0 || c.Owners() != 0 {
		t.Error("failed construction must not store anything")
	}
	if owner.closing.Len() != 0 {
		t.Error("failed construction must not register a teardown hook")
	}

	var calls atomic.Int32
	src, err := c.GetOrCreate(owner, key, counter("x", &calls))
	if err != nil || src == nil {
		t.Fatalf("retry failed: %v", err)
	}
	again, _ := c.GetOrCreate(owner, key, counter("x", &calls))
	if again != src || calls.Load() != 1 {
		t.Error("retry should cache normally")
	}
}

func TestGetOrCreate_NilSource(t *testing.T) {
	c := New()
	owner := newTestOwner("view-a")
	key := NewKey("k")

	_, err := c.GetOrCreate(owner, key, func() (tagger.Source, error) { return nil, nil })
	if !errors.Is(err, ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", err)
	}

	_, err = Get(c, owner, key, func() (*testSource, error) { return nil, nil })
	if !errors.Is(err, ErrNilSource) {
		t.Errorf("expected ErrNilSource for typed nil, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("nil sources must not be stored")
	}
}

func TestGetOrCreate_InvalidArguments(t *testing.T) {
	c := New()
	owner := newTestOwner("a")
	key := NewKey("k")
	create := func() (tagger.Source, error) { return &testSource{}, nil }

	tests := []struct {
		name   string
		owner  Owner
		key    *Key
		create func() (tagger.Source, error)
		want   error
	}{
		{"nil owner", nil, key, create, ErrNilOwner},
		{"typed nil owner", (*testOwner)(nil), key, create, ErrNilOwner},
		{"nil key", owner, nil, create, ErrNilKey},
		{"nil constructor", owner, key, nil, ErrNilConstructor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.GetOrCreate(tt.owner, tt.key, tt.create); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Get[*testSource](c, owner, key, nil); !errors.Is(err, ErrNilConstructor) {
		t.Errorf("expected ErrNilConstructor, got %v", err)
	}
}

func TestGetOrCreate_ClosedOwner(t *testing.T) {
	c := New()
	owner := newTestOwner("a")
	owner.Close()

	var calls atomic.Int32
	if _, err := c.GetOrCreate(owner, NewKey("k"), counter("x", &calls)); !errors.Is(err, ErrOwnerClosed) {
		t.Errorf("expected ErrOwnerClosed, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("constructor must not run for a closed owner")
	}
}

func TestGetOrCreate_OwnerClosedDuringConstruction(t *testing.T) {
	c := New()
	owner := newTestOwner("a")

	var built *testSource
	_, err := Get(c, owner, NewKey("k"), func() (*testSource, error) {
		owner.Close()
		built = &testSource{}
		return built, nil
	})

	if !errors.Is(err, ErrOwnerClosed) {
		t.Errorf("expected ErrOwnerClosed, got %v", err)
	}
	if built.closes.Load() != 1 {
		t.Errorf("orphaned source should be closed once, got %d", built.closes.Load())
	}
	if c.Len() != 0 {
		t.Error("nothing should be stored for a closed owner")
	}
}

func TestGet_TypeMismatch(t *testing.T) {
	c := New()
	owner := newTestOwner("a")
	key := NewKey("k")

	if _, err := Get(c, owner, key, func() (*testSource, error) { return &testSource{}, nil }); err != nil {
		t.Fatal(err)
	}
	_, err := Get(c, owner, key, func() (*otherSource, error) { return &otherSource{}, nil })
	if !errors.Is(err, ErrKeyTypeMismatch) {
		t.Errorf("expected ErrKeyTypeMismatch, got %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	owner := newTestOwner("a")
	key := NewKey("k")

	first, _ := Get(c, owner, key, func() (*testSource, error) { return &testSource{}, nil })

	if !c.Invalidate(owner, key) {
		t.Fatal("expected invalidate to remove the slot")
	}
	if c.Invalidate(owner, key) {
		t.Error("second invalidate should be a no-op")
	}
	if first.closes.Load() != 1 {
		t.Errorf("expected invalidated source closed once, got %d", first.closes.Load())
	}
	if owner.closing.Len() != 0 {
		t.Error("invalidating the last slot should drop the teardown hook")
	}

	second, _ := Get(c, owner, key, func() (*testSource, error) { return &testSource{}, nil })
	if second == first {
		t.Error("expected a fresh source after invalidation")
	}

	owner.Close()
	if first.closes.Load() != 1 || second.closes.Load() != 1 {
		t.Errorf("unexpected close counts %d and %d", first.closes.Load(), second.closes.Load())
	}
}

func TestGetOrCreate_ConcurrentSameSlot(t *testing.T) {
	c := New()
	owner := newTestOwner("a")
	key := NewKey("k")

	var calls atomic.Int32
	gate := make(chan struct{})
	create := func() (tagger.Source, error) {
		calls.Add(1)
		<-gate
		return &testSource{}, nil
	}

	const n = 16
	results := make([]tagger.Source, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src, err := c.GetOrCreate(owner, key, create)
			if err != nil {
				t.Errorf("goroutine %d: %v", i, err)
				return
			}
			results[i] = src
		}(i)
	}
	close(gate)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 construction, got %d", calls.Load())
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different source", i)
		}
	}
}

func TestGetOrCreate_ConcurrentDifferentKeys(t *testing.T) {
	c := New()
	owner := newTestOwner("a")

	const n = 8
	keys := make([]*Key, n)
	for i := range keys {
		keys[i] = NewKey(fmt.Sprintf("feature-%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func(key *Key) {
				defer wg.Done()
				if _, err := c.GetOrCreate(owner, key, func() (tagger.Source, error) {
					return &testSource{}, nil
				}); err != nil {
					t.Error(err)
				}
			}(keys[i])
		}
	}
	wg.Wait()

	if c.Len() != n {
		t.Errorf("expected %d sources, got %d", n, c.Len())
	}
	if owner.closing.Len() != 1 {
		t.Errorf("expected a single teardown hook per owner, got %d", owner.closing.Len())
	}

	owner.Close()
	if c.Len() != 0 {
		t.Errorf("expected teardown to release all keys, %d remain", c.Len())
	}
}

func TestRelease_DisposeErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithLogger(logging.New(logging.Config{Level: logging.LevelWarn, Output: &buf})))
	owner := newTestOwner("a")

	src, _ := Get(c, owner, NewKey("broken"), func() (*testSource, error) {
		return &testSource{closeErr: errors.New("release failed")}, nil
	})

	owner.Close()

	if src.closes.Load() != 1 {
		t.Errorf("expected one close, got %d", src.closes.Load())
	}
	if !strings.Contains(buf.String(), "release failed") {
		t.Errorf("expected dispose error to be logged, got %q", buf.String())
	}
}

func TestClose(t *testing.T) {
	c := New()
	a := newTestOwner("a")
	b := newTestOwner("b")

	sa, _ := Get(c, a, NewKey("k"), func() (*testSource, error) { return &testSource{}, nil })
	sb, _ := Get(c, b, NewKey("k"), func() (*testSource, error) { return &testSource{}, nil })

	c.Close()
	c.Close()

	if sa.closes.Load() != 1 || sb.closes.Load() != 1 {
		t.Error("close should dispose every source once")
	}

	var calls atomic.Int32
	if _, err := c.GetOrCreate(a, NewKey("k"), counter("x", &calls)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("closed cache must not construct")
	}

	a.Close()
	if sa.closes.Load() != 1 {
		t.Error("owner teardown after cache close must not dispose again")
	}
}

func TestKey(t *testing.T) {
	a := NewKey("same")
	b := NewKey("same")

	if a == b || a.String() == b.String() {
		t.Error("keys with the same name must stay distinct")
	}
	if a.Name() != "same" {
		t.Errorf("unexpected name %q", a.Name())
	}

	var nilKey *Key
	if nilKey.String() != "<nil>" || nilKey.Name() != "" {
		t.Error("nil key should format safely")
	}
}
