package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shashiranjanraj/rincon/pkg/metrics"
)

// Memory is a process-local Store backed by go-cache. Values are kept as
// JSON so reads decode into the caller's type exactly like the redis driver.
type Memory struct {
	c *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) bool {
	v, ok := m.c.Get(key)
	if ok {
		data, _ := v.([]byte)
		ok = json.Unmarshal(data, dest) == nil
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("memory").Inc()
	return true
}

// Set stores value for ttl; ttl <= 0 keeps it until deleted.
func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, data, ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

func (m *Memory) Driver() string { return "memory" }

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.c.DeleteExpired()
	return m.c.ItemCount()
}
