package container

import (
	"context"
	"sync/atomic"
)

// Key is an opaque handle identifying a registered system. Keys are created
// with NewKey and compared by identity: two keys created with the same name
// are still different keys. The name exists for diagnostics only.
//
// Hold keys in package-level variables and share them between the registering
// and the consuming side; never reconstruct them.
type Key struct {
	id   uint64
	name string
}

var keySeq atomic.Uint64

// NewKey allocates a new unique Key. The name appears in logs and error
// messages.
func NewKey(name string) Key {
	return Key{id: keySeq.Add(1), name: name}
}

// Name returns the diagnostic name the key was created with.
func (k Key) Name() string { return k.name }

// IsZero reports whether the key was never allocated through NewKey.
func (k Key) IsZero() bool { return k.id == 0 }

func (k Key) String() string { return k.name }

// LifecycleState tracks a system through registration, construction and
// disposal.
//
//	StateRegistered -> StateResolving -> StateReady -> StateDisposed
//
// StateResolving is visible only while a factory chain is running; a resolve
// call that re-enters a key in StateResolving has found a dependency cycle.
// StateDisposed is terminal: the definition stays for diagnostics but the
// instance is gone and the key must be re-registered before further use.
type LifecycleState uint8

const (
	StateUnregistered LifecycleState = iota
	StateRegistered
	StateResolving
	StateReady
	StateDisposed
)

func (s LifecycleState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unregistered"
	}
}

// Resolver is the limited container view handed to factories. It is bound to
// the resolution in flight, so factories obtain their dependencies through it
// without re-locking. Factories must use the Resolver they are given, never
// the Container itself, to get dependencies.
type Resolver interface {
	// Get resolves a dependency, constructing it first if needed.
	Get(key Key) (any, error)
	// GetOptional resolves a dependency or returns nil if it is not
	// registered or fails to construct.
	GetOptional(key Key) any
}

// FactoryFunc constructs a system instance. Declared dependencies are already
// constructed by the time the factory runs; the factory fetches them through
// the Resolver.
type FactoryFunc func(r Resolver) (any, error)

// InitializeFunc runs once after the factory, before the system becomes
// ready. It must not call back into the Container.
type InitializeFunc func(ctx context.Context, instance any) error

// DisposeFunc releases a system's resources during Dispose and DisposeAll.
// Unregister and Clear drop entries without invoking it.
type DisposeFunc func(instance any) error

// Definition describes a system registration.
//
// Dependencies are constructed before the factory runs and define both the
// eager initialization order and the disposal order (reverse of
// construction). A Lazy system is skipped by InitializeAll and constructed on
// first Get.
type Definition struct {
	Key          Key
	Factory      FactoryFunc
	Dependencies []Key
	Lazy         bool
	Initialize   InitializeFunc
	Dispose      DisposeFunc
}
