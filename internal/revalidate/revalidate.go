// Package revalidate implements stale-while-revalidate reads on top of a
// session cache: the cached snapshot is returned immediately and the remote
// source is always queried in the background.
package revalidate

import (
	"context"

	"quizzly/internal/logger"
	"quizzly/internal/sessioncache"
)

// Fetcher binds a cache store to the loads issued against it.
type Fetcher struct {
	store sessioncache.Store
	log   *logger.Logger
}

func New(store sessioncache.Store, log *logger.Logger) *Fetcher {
	return &Fetcher{store: store, log: logger.OrNop(log).With("component", "revalidate")}
}

// Result is one load in flight. Initial is available as soon as Load
// returns; the remote outcome arrives later through Done and Settled.
type Result[T any] struct {
	Key        string
	Initial    T
	HasInitial bool

	done  chan struct{}
	value T
	err   error
}

// Load reads key from the cache synchronously and starts the remote call.
// The remote call is issued even when the cache holds a value. On success the
// fresh value overwrites the cache entry; on failure the entry is untouched.
func Load[T any](ctx context.Context, f *Fetcher, key string, remote func(context.Context) (T, error)) *Result[T] {
	result := &Result[T]{Key: key, done: make(chan struct{})}
	result.Initial, result.HasInitial = sessioncache.ReadJSON[T](f.store, key)

	go func() {
		defer close(result.done)

		value, err := remote(ctx)
		if err != nil {
			result.err = err
			f.log.Warn("revalidation failed, keeping cached value", "key", key, "cached", result.HasInitial, "error", err)
			return
		}

		result.value = value
		if err := sessioncache.WriteJSON(f.store, key, value); err != nil {
			f.log.Warn("cache write failed", "key", key, "error", err)
		}
	}()

	return result
}

// Done is closed once the remote call has finished.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Settled waits for the remote call and returns its outcome. If ctx ends
// first, ctx.Err() is returned and the remote call keeps running.
func (r *Result[T]) Settled(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Latest returns the freshest value known: the remote value when the call
// has succeeded, otherwise the cached one.
func (r *Result[T]) Latest() (T, bool) {
	select {
	case <-r.done:
		if r.err == nil {
			return r.value, true
		}
	default:
	}
	return r.Initial, r.HasInitial
}
