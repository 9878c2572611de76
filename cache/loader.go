package cache

import (
	"context"
	"fmt"
)

// GetOrLoad returns the value for k; on miss it loads via
// Options.Loader, coalescing concurrent loads for the same key with
// golang.org/x/sync/singleflight. If no Loader is configured, it
// returns ErrNoLoader.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if c.closed.Load() {
		var zero V
		return zero, ErrNoLoader
	}
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	// singleflight.Group keys on string; K is an arbitrary comparable
	// type, so keys are coerced with fmt.Sprint. Distinct K values that
	// stringify identically would coalesce onto the same flight; callers
	// for whom that matters should key the cache on string directly.
	key := fmt.Sprint(k)
	v, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		loaded, err := c.opt.Loader(ctx, k)
		if err != nil {
			return loaded, err
		}
		c.Put(k, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
