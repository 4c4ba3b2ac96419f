package bus

import "time"

// EventBus defines the engine's thread-safe, in-process pub/sub spine.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: Publish calls handler callbacks in the caller goroutine.
// - Error aggregation: multiple handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
//
// Notes:
// - Event types are dot-namespaced strings ("render.frame.start", "save.completed").
// - Handlers should be quick or offload heavy work to avoid blocking the game loop.
// - Handler panics are not recovered; a broken handler is a programming fault and
//   surfaces at the publish site.
// - All methods must be safe for concurrent use.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of
	// event.Type(). If one or more handlers return an error, a joined error is
	// returned. Subscribing or cancelling during delivery affects later publishes,
	// not the one in flight.
	Publish(event Event) error
	// Emit is the convenience form of Publish: it wraps data in an Event with the
	// given type, no source and the current timestamp.
	Emit(eventType string, data any) error
	// EmitAsync delivers in a separate goroutine and returns a channel that will
	// receive the joined error (or nil) when delivery completes; then the channel
	// is closed.
	EmitAsync(eventType string, data any) <-chan error

	// Subscribe registers a handler for a specific event type and returns a
	// Subscription handle that can be used to cancel later.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// On registers a handler and returns a cancel closure. Handler functions are
	// not comparable in Go, so cancellation always goes through the returned
	// closure (or the Subscription from Subscribe), never by handler identity.
	On(eventType string, handler EventHandler) (off func())
	// Unsubscribe cancels the given Subscription. Safe to call with nil; does nothing.
	Unsubscribe(Subscription) error

	// SubscriberCount reports the number of active subscriptions for an event type.
	SubscriberCount(eventType string) int
	// Clear cancels every subscription. Existing Subscription handles become inactive.
	Clear()

	// AddObserver registers an observer to receive delivery callbacks.
	AddObserver(obs Observer)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs Observer)
	// Metrics returns a best-effort snapshot of accumulated counters. Counters are
	// only collected while at least one observer is registered.
	Metrics() Metrics
}

// Event is an immutable message transported by the EventBus.
//
// Fields:
// - Type: routing key used to select handlers (required for delivery).
// - Source: identifier of the publishing subsystem (free-form, may be empty).
// - Timestamp: creation time of the event.
// - Data: opaque payload for consumers.
// - Metadata: small key/value annotations for additional context.
//
// Implementations should treat Event values as read-only.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

// EventHandler is a user callback invoked per delivered event. If it returns an
// error, Publish aggregates and returns it.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to an event type.
// Use Cancel or EventBus.Unsubscribe to stop receiving events.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// EventType returns the event type this subscription listens to.
	EventType() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries and errors. Implementations can export
// metrics, tracing, or logs. Observers should return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, durationMicros int64)
}

// Metrics represents a minimal set of counters; it is updated only when at
// least one observer is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
