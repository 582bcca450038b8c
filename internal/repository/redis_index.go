package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeDeck/pkg/cache"
)

// Redis has no cheap "list all" for our JSON values, so collections keep a
// membership index under a dedicated key. Index updates take a short cache
// lock to avoid lost updates from concurrent writers.

func indexAdd(ctx context.Context, c cache.Service, indexKey, member string) error {
	return withIndexLock(ctx, c, indexKey, func(members []string) []string {
		for _, m := range members {
			if m == member {
				return members
			}
		}
		return append(members, member)
	})
}

func indexRemove(ctx context.Context, c cache.Service, indexKey, member string) error {
	return withIndexLock(ctx, c, indexKey, func(members []string) []string {
		out := members[:0]
		for _, m := range members {
			if m != member {
				out = append(out, m)
			}
		}
		return out
	})
}

func indexMembers(ctx context.Context, c cache.Service, indexKey string) ([]string, error) {
	var members []string
	if err := c.Get(ctx, indexKey, &members); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return members, nil
}

func withIndexLock(ctx context.Context, c cache.Service, indexKey string, mutate func([]string) []string) error {
	lockKey := indexKey + ":lock"
	for i := 0; i < 20; i++ {
		ok, err := c.TryLock(ctx, lockKey, 5*time.Second)
		if err != nil {
			return fmt.Errorf("index lock: %w", err)
		}
		if ok {
			defer func() { _ = c.Unlock(ctx, lockKey) }()
			members, err := indexMembers(ctx, c, indexKey)
			if err != nil {
				return err
			}
			return c.Set(ctx, indexKey, mutate(members), 0)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return fmt.Errorf("index lock: contention on %s", indexKey)
}
