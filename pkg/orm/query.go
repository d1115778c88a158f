// Package orm runs gorm statements through the connection gate.
//
// Every call acquires a slot from the connpool.Pool, applies the optional
// per-call timeout, and records duration and error metrics:
//
//	err := store.Run(ctx, "Productos", orm.OpSelect, func(tx *gorm.DB) error {
//	    return tx.Order("id").Find(&out).Error
//	})
package orm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/pkg/connpool"
	"github.com/shashiranjanraj/rincon/pkg/metrics"
)

// Operation labels used for metrics.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	OpTx     = "tx"
)

// Store is the shared, concurrency-safe entry point to the database.
type Store struct {
	db      *gorm.DB
	pool    *connpool.Pool
	timeout time.Duration
}

// New wraps db. A nil pool admits every caller immediately.
func New(db *gorm.DB, pool *connpool.Pool) *Store {
	return &Store{db: db, pool: pool}
}

// WithTimeout returns a copy whose calls are bounded by d (0 = none).
func (s *Store) WithTimeout(d time.Duration) *Store {
	cp := *s
	cp.timeout = d
	return &cp
}

// DB exposes the raw handle for migrations and seeders.
func (s *Store) DB() *gorm.DB { return s.db }

// Pool returns the connection gate, which may be nil.
func (s *Store) Pool() *connpool.Pool { return s.pool }

// Run executes fn with a session bound to ctx while holding a slot.
func (s *Store) Run(ctx context.Context, table, op string, fn func(tx *gorm.DB) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.pool != nil {
		release, err := s.pool.Acquire(ctx)
		if err != nil {
			metrics.RecordDBError(table, op)
			return err
		}
		defer release()
	}

	start := time.Now()
	err := fn(s.db.WithContext(ctx))
	metrics.ObserveDBQuery(table, op, start)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordDBError(table, op)
	}
	return err
}

// Transaction runs fn inside a database transaction holding a single slot.
// Any error returned by fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, table string, fn func(tx *gorm.DB) error) error {
	return s.Run(ctx, table, OpTx, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}
