package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ int64) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	done := make(chan struct{})
	_, err := b.Subscribe("test.event", func(e Event) error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("test.event", "tester", 123, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler not called")
	}
}

func TestEmitWrapsData(t *testing.T) {
	b := New()
	var got Event
	_, _ = b.Subscribe("scene.changed", func(e Event) error {
		got = e
		return nil
	})
	if err := b.Emit("scene.changed", map[string]string{"to": "intro"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got == nil {
		t.Fatal("handler not called")
	}
	if got.Type() != "scene.changed" {
		t.Fatalf("wrong type: %q", got.Type())
	}
	data, ok := got.Data().(map[string]string)
	if !ok || data["to"] != "intro" {
		t.Fatalf("payload lost: %#v", got.Data())
	}
}

func TestEmitAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	_, err := b.Subscribe("x", func(e Event) error { return handlerErr })
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	ch := b.EmitAsync("x", nil)
	select {
	case e := <-ch:
		if !errors.Is(e, handlerErr) {
			t.Fatalf("expected handler error, got %v", e)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("async delivery never completed")
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	err1 := errors.New("first")
	err2 := errors.New("second")
	_, _ = b.Subscribe("e", func(Event) error { return err1 })
	_, _ = b.Subscribe("e", func(Event) error { return err2 })
	_, _ = b.Subscribe("e", func(Event) error { return nil })

	err := b.Emit("e", nil)
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Fatalf("joined error missing parts: %v", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, _ := b.Subscribe("e", func(Event) error { count++; return nil })
	off := b.On("e", func(Event) error { count++; return nil })

	_ = b.Emit("e", nil)
	if count != 2 {
		t.Fatalf("expected 2 deliveries, got %d", count)
	}

	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	off()
	off() // repeat cancels are safe

	_ = b.Emit("e", nil)
	if count != 2 {
		t.Fatalf("delivery after cancel: %d", count)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active after cancel")
	}
	if b.SubscriberCount("e") != 0 {
		t.Fatalf("stale subscriber count: %d", b.SubscriberCount("e"))
	}
}

func TestClearCancelsEverything(t *testing.T) {
	b := New()
	count := 0
	_, _ = b.Subscribe("a", func(Event) error { count++; return nil })
	_, _ = b.Subscribe("b", func(Event) error { count++; return nil })

	b.Clear()
	_ = b.Emit("a", nil)
	_ = b.Emit("b", nil)
	if count != 0 {
		t.Fatalf("handlers survived Clear: %d", count)
	}
}

func TestCancelDuringPublish(t *testing.T) {
	b := New()
	var delivered atomic.Int64
	subs := make([]Subscription, 64)
	for i := range subs {
		sub, err := b.Subscribe("tick", func(Event) error {
			delivered.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		subs[i] = sub
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = b.Publish(NewEvent("tick", "race", i, nil))
		}
	}()
	go func() {
		defer wg.Done()
		for _, sub := range subs {
			_ = sub.Cancel()
		}
	}()
	wg.Wait()

	for _, sub := range subs {
		if sub.IsActive() {
			t.Fatal("subscription still active after cancel")
		}
	}
	if n := b.SubscriberCount("tick"); n != 0 {
		t.Fatalf("subscriptions left after cancel: %d", n)
	}

	// every cancel has returned, so nothing may be delivered anymore
	before := delivered.Load()
	_ = b.Publish(NewEvent("tick", "race", nil, nil))
	if after := delivered.Load(); after != before {
		t.Fatalf("delivery after cancel: %d -> %d", before, after)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	// without observer, metrics should remain zero despite activity
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	m := b.Metrics()
	if m.Published != 0 && m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}
	// now add observer and expect metrics to update
	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	m2 := b.Metrics()
	if m2.Published == 0 || m2.DeliveredHandlers == 0 {
		t.Fatalf("metrics should update with observer: %+v", m2)
	}
	if obs.publishCount == 0 || obs.deliveredCount == 0 {
		t.Fatalf("observer not called: %+v", obs)
	}
	b.RemoveObserver(obs)
}
