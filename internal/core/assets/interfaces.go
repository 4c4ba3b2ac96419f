package assets

import "context"

// EventLoadFailed is published once per failed load with
// {"kind": ..., "key": ..., "url": ..., "error": ...}.
const EventLoadFailed = "asset.loadFailed"

// Loader fetches and decodes one kind of asset. Implementations live on
// the host side (image decoding, JSON parsing, audio decoding); the engine
// only routes by kind and caches what comes back.
//
// Load is called from whatever goroutine requested the asset and may block;
// it must honor ctx cancellation.
type Loader interface {
	Load(ctx context.Context, url string) (any, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, url string) (any, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (any, error) { return f(ctx, url) }
