package notify

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNotifier_Subscribe(t *testing.T) {
	n := New[int]()

	var received atomic.Int32

	sub := n.Subscribe(func(v int) {
		received.Add(int32(v))
	})

	n.Notify(2)

	if received.Load() != 2 {
		t.Errorf("expected 2, got %d", received.Load())
	}

	// Unsubscribe
	sub.Unsubscribe()

	n.Notify(5)

	if received.Load() != 2 {
		t.Error("unsubscribed observer received notification")
	}
}

func TestNotifier_Order(t *testing.T) {
	n := New[string]()

	var got []string
	n.Subscribe(func(string) { got = append(got, "a") })
	n.Subscribe(func(string) { got = append(got, "b") })
	n.Subscribe(func(string) { got = append(got, "c") })

	n.Notify("x")

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("unexpected delivery order %v", got)
	}
}

func TestNotifier_ZeroValue(t *testing.T) {
	var n Notifier[int]

	var calls int
	n.Subscribe(func(int) { calls++ })
	n.Notify(1)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestSubscription_UnsubscribeIdempotent(t *testing.T) {
	n := New[int]()

	sub := n.Subscribe(func(int) {})
	n.Subscribe(func(int) {})

	sub.Unsubscribe()
	sub.Unsubscribe()

	if n.Len() != 1 {
		t.Errorf("expected 1 observer, got %d", n.Len())
	}

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

func TestNewSubscription(t *testing.T) {
	var calls int
	sub := NewSubscription(func() { calls++ })

	sub.Unsubscribe()
	sub.Unsubscribe()

	if calls != 1 {
		t.Errorf("expected cancel to run once, got %d", calls)
	}
}

func TestNotifier_UnsubscribeDuringNotify(t *testing.T) {
	n := New[int]()

	var calls atomic.Int32
	var sub *Subscription
	sub = n.Subscribe(func(int) {
		calls.Add(1)
		sub.Unsubscribe()
	})

	n.Notify(1)
	n.Notify(2)

	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestNotifier_Close(t *testing.T) {
	n := New[int]()

	var calls int
	n.Subscribe(func(int) { calls++ })

	n.Close()
	n.Close()
	n.Notify(1)

	if calls != 0 {
		t.Error("closed notifier delivered an event")
	}

	sub := n.Subscribe(func(int) { calls++ })
	sub.Unsubscribe()
	if n.Len() != 0 {
		t.Errorf("expected no observers after close, got %d", n.Len())
	}
}

func TestNotifier_NilObserver(t *testing.T) {
	n := New[int]()
	n.Subscribe(nil).Unsubscribe()

	if n.Len() != 0 {
		t.Errorf("expected nil observer to be ignored, got %d", n.Len())
	}
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New[int]()

	var total atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := n.Subscribe(func(v int) { total.Add(int64(v)) })
			n.Notify(1)
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	if n.Len() != 0 {
		t.Errorf("expected all observers removed, got %d", n.Len())
	}
	if total.Load() < 10 {
		t.Errorf("expected at least 10 deliveries, got %d", total.Load())
	}
}
