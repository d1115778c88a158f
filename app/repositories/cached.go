package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/rincon/pkg/cache"
	"github.com/shashiranjanraj/rincon/pkg/logger"
)

// ListKey and ItemKey are the cache keys used for one table.
func ListKey(table string) string          { return "rincon:" + table + ":all" }
func ItemKey(table string, id uint) string { return fmt.Sprintf("rincon:%s:%d", table, id) }

// Cached is a read-through decorator around a Repository. All and Find are
// served from the cache when possible. Any successful Create, Update or
// Delete on the same table evicts the list key and the affected item key.
type Cached[T any] struct {
	inner Repository[T]
	cache cache.Store
	table string
	ttl   time.Duration
}

// NewCached wraps inner. A nil store returns inner unchanged.
func NewCached[T any](inner Repository[T], store cache.Store, table string, ttl time.Duration) Repository[T] {
	if store == nil {
		return inner
	}
	return &Cached[T]{inner: inner, cache: store, table: table, ttl: ttl}
}

func (c *Cached[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	if c.cache.Get(ctx, ListKey(c.table), &out) {
		return out, nil
	}
	out, err := c.inner.All(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ListKey(c.table), out)
	return out, nil
}

func (c *Cached[T]) Find(ctx context.Context, id uint) (*T, error) {
	var out T
	if c.cache.Get(ctx, ItemKey(c.table, id), &out) {
		return &out, nil
	}
	v, err := c.inner.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ItemKey(c.table, id), v)
	return v, nil
}

func (c *Cached[T]) Create(ctx context.Context, v *T) error {
	if err := c.inner.Create(ctx, v); err != nil {
		return err
	}
	c.evict(ctx, ListKey(c.table))
	return nil
}

func (c *Cached[T]) Update(ctx context.Context, id uint, v *T) error {
	err := c.inner.Update(ctx, id, v)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	c.evict(ctx, ListKey(c.table), ItemKey(c.table, id))
	return err
}

func (c *Cached[T]) Delete(ctx context.Context, id uint) error {
	err := c.inner.Delete(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	c.evict(ctx, ListKey(c.table), ItemKey(c.table, id))
	return err
}

func (c *Cached[T]) store(ctx context.Context, key string, v interface{}) {
	if err := c.cache.Set(ctx, key, v, c.ttl); err != nil {
		logger.WithCtx(ctx).Warn("cache: set failed", "key", key, "driver", c.cache.Driver(), "error", err)
	}
}

func (c *Cached[T]) evict(ctx context.Context, keys ...string) {
	if err := c.cache.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("cache: evict failed", "keys", keys, "driver", c.cache.Driver(), "error", err)
	}
}
