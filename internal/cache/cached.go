package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetOrCompute returns the value cached under key, or runs compute and
// persists its result. Any non-hit — missing entry, unreadable file,
// corrupt envelope, undecodable payload — falls through to compute; only
// compute failures and write failures are returned.
func GetOrCompute[T any](ctx context.Context, store Store, key string, compute func() (T, error)) (T, error) {
	var zero T

	if raw, ok, err := store.Get(ctx, key); err == nil && ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		// payload no longer decodes into T: recompute and overwrite
	}

	value, err := compute()
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("encode cache payload: %w", err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return zero, fmt.Errorf("persist cache entry: %w", err)
	}
	return value, nil
}

// Func binds a computation to a store and a key-deriving function,
// yielding a callable with get-or-compute semantics.
type Func[A, T any] struct {
	store   Store
	keyFor  func(A) string
	compute func(A) (T, error)
}

// NewFunc wraps compute so that Call serves repeated arguments from store.
func NewFunc[A, T any](store Store, keyFor func(A) string, compute func(A) (T, error)) *Func[A, T] {
	return &Func[A, T]{store: store, keyFor: keyFor, compute: compute}
}

// Call runs the wrapped computation through the cache.
func (f *Func[A, T]) Call(ctx context.Context, arg A) (T, error) {
	return GetOrCompute(ctx, f.store, f.keyFor(arg), func() (T, error) {
		return f.compute(arg)
	})
}
