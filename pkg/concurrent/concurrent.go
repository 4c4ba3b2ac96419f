package concurrent

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/footlight/footlight/pkg/sequence"
)

// ForEach runs action for every element of the iterator in its own
// goroutine and waits for all of them. The first error encountered is
// returned; the remaining goroutines still run to completion.
func ForEach[T any](it *sequence.Iterator[T], action func(T) error) error {
	return ForEachLimit(it, 0, action)
}

// ForEachLimit is ForEach with at most limit goroutines in flight. A limit
// of zero or less means unlimited. Elements are started in iterator order,
// so feeding a sorted iterator starts the most important work first.
func ForEachLimit[T any](it *sequence.Iterator[T], limit int, action func(T) error) error {
	group := errgroup.Group{}
	if limit > 0 {
		group.SetLimit(limit)
	}
	next, stop := it.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}
		group.Go(func() error {
			return action(value)
		})
	}

	return group.Wait()
}

// FanOut delivers each element to every handler concurrently and waits for
// all deliveries to finish.
func FanOut[T any](it *sequence.Iterator[T], handlers ...func(T)) {
	var wg sync.WaitGroup
	next, stop := it.Pull()
	defer stop()
	for {
		value, valid := next()
		if !valid {
			break
		}
		for _, handler := range handlers {
			wg.Add(1)
			go func(h func(T), v T) {
				defer wg.Done()
				h(v)
			}(handler, value)
		}
	}
	wg.Wait()
}
