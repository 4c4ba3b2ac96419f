package bus

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// helper to make a simple event quickly
func benchEvt(t string) Event {
	return NewEvent(t, "bench", nil, nil)
}

// no-op handler that increments a counter to avoid compiler eliminating logic
func makeHandler(c *int64, err bool) EventHandler {
	return func(e Event) error {
		atomic.AddInt64(c, 1)
		if err {
			return assertError
		}
		return nil
	}
}

// assertError is a sentinel returned from handlers when we want to simulate errors
var assertError = errSentinel{}

type errSentinel struct{}

func (errSentinel) Error() string { return "sentinel" }

type nopObserver struct{}

func (nopObserver) OnPublish(eventType string, event Event)                                {}
func (nopObserver) OnDelivered(eventType string, handlers int, err error, durMicros int64) {}

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("tick", makeHandler(&c, false))
	e := benchEvt("tick")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(e)
	}
	b.StopTimer()
	_ = c // keep referenced
}

func BenchmarkPublishManySubscribers(b *testing.B) {
	for _, subs := range []int{1, 4, 16, 64, 256, 1024} {
		b.Run("subs="+itoa(subs), func(b *testing.B) {
			bus := New()
			var c int64
			for i := 0; i < subs; i++ {
				_, _ = bus.Subscribe("tick", makeHandler(&c, false))
			}
			e := benchEvt("tick")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = bus.Publish(e)
			}
			b.StopTimer()
			_ = c
		})
	}
}

func BenchmarkConcurrentPublishers(b *testing.B) {
	bus := New()
	var c int64
	// 64 handlers to add some work
	for i := 0; i < 64; i++ {
		_, _ = bus.Subscribe("tick", makeHandler(&c, false))
	}
	e := benchEvt("tick")
	b.ReportAllocs()
	b.SetParallelism(4)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = bus.Publish(e)
		}
	})
	_ = c
}

func BenchmarkObserverOverhead(b *testing.B) {
	bus := New()
	var c int64
	for i := 0; i < 32; i++ {
		_, _ = bus.Subscribe("tick", makeHandler(&c, false))
	}
	e := benchEvt("tick")
	b.Run("no-observer", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = bus.Publish(e)
		}
	})
	b.Run("with-observer", func(b *testing.B) {
		obs := nopObserver{}
		bus.AddObserver(obs)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = bus.Publish(e)
		}
		bus.RemoveObserver(obs)
	})
	_ = c
}

func BenchmarkEmitAsync(b *testing.B) {
	bus := New()
	var c int64
	for i := 0; i < 8; i++ {
		_, _ = bus.Subscribe("tick", makeHandler(&c, false))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch := bus.EmitAsync("tick", nil)
		<-ch
	}
	_ = c
}

func BenchmarkSubscribeUnsubscribeChurn(b *testing.B) {
	bus := New()
	var c int64
	stop := make(chan struct{})
	// churn goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		subs := make([]Subscription, 0, 2048)
		const (
			maxSubs     = 4096
			addBatch    = 128
			removeBatch = 64
		)
		for {
			select {
			case <-stop:
				// best-effort cleanup; check stop regularly to avoid long stalls
				for len(subs) > 0 {
					last := subs[len(subs)-1]
					subs = subs[:len(subs)-1]
					_ = bus.Unsubscribe(last)
				}
				return
			default:
				// add a batch, bounded by maxSubs, checking stop frequently
				for i := 0; i < addBatch && len(subs) < maxSubs; i++ {
					select {
					case <-stop:
						return
					default:
					}
					s, _ := bus.Subscribe("tick", makeHandler(&c, false))
					subs = append(subs, s)
				}
				// remove a batch if any
				for i := 0; i < removeBatch && len(subs) > 0; i++ {
					select {
					case <-stop:
						return
					default:
					}
					last := subs[len(subs)-1]
					subs = subs[:len(subs)-1]
					_ = bus.Unsubscribe(last)
				}
				// yield to allow publishers to proceed
				runtime.Gosched()
			}
		}
	}()
	// small yield to let churn goroutine start
	runtime.Gosched()
	e := benchEvt("tick")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(e)
	}
	b.StopTimer()
	close(stop)
	wg.Wait()
	_ = c
}

// itoa without fmt to avoid extra allocations in benchmarks' names
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	var buf [20]byte
	bp := len(buf)
	for i > 0 {
		bp--
		buf[bp] = byte('0' + (i % 10))
		i /= 10
	}
	if neg {
		bp--
		buf[bp] = '-'
	}
	return string(buf[bp:])
}
