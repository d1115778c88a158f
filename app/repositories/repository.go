// Package repositories is the store client used by controllers and
// services. Controllers depend on the Repository interface only, so tests
// can swap in fakes and the cache decorator can wrap any implementation.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/pkg/orm"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

// Repository is the CRUD contract shared by every resource.
type Repository[T any] interface {
	All(ctx context.Context) ([]T, error)
	Find(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, id uint, v *T) error
	Delete(ctx context.Context, id uint) error
}

// GormRepository implements Repository with parameterized gorm statements
// run through the shared orm.Store.
type GormRepository[T any, PT models.Entity[T]] struct {
	store *orm.Store
	table string
}

func NewGormRepository[T any, PT models.Entity[T]](store *orm.Store) *GormRepository[T, PT] {
	return &GormRepository[T, PT]{store: store, table: PT(new(T)).TableName()}
}

// Table is the underlying table name.
func (r *GormRepository[T, PT]) Table() string { return r.table }

// All returns every row ordered by id. An empty table yields an empty,
// non-nil slice.
func (r *GormRepository[T, PT]) All(ctx context.Context) ([]T, error) {
	out := []T{}
	err := r.store.Run(ctx, r.table, orm.OpSelect, func(tx *gorm.DB) error {
		return tx.Order("id").Find(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", r.table, err)
	}
	return out, nil
}

func (r *GormRepository[T, PT]) Find(ctx context.Context, id uint) (*T, error) {
	var out T
	err := r.store.Run(ctx, r.table, orm.OpSelect, func(tx *gorm.DB) error {
		return tx.First(&out, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find %d: %w", r.table, id, err)
	}
	return &out, nil
}

// FindBy returns every row whose column equals value, ordered by id.
// column must come from code, never from request input.
func (r *GormRepository[T, PT]) FindBy(ctx context.Context, column string, value interface{}) ([]T, error) {
	out := []T{}
	err := r.store.Run(ctx, r.table, orm.OpSelect, func(tx *gorm.DB) error {
		return tx.Where(column+" = ?", value).Order("id").Find(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%s: find by %s: %w", r.table, column, err)
	}
	return out, nil
}

// Create inserts v and writes the store-assigned id back into it. Any id
// already present on v is discarded.
func (r *GormRepository[T, PT]) Create(ctx context.Context, v *T) error {
	PT(v).SetKey(0)
	err := r.store.Run(ctx, r.table, orm.OpInsert, func(tx *gorm.DB) error {
		return tx.Create(v).Error
	})
	if err != nil {
		return fmt.Errorf("%s: create: %w", r.table, err)
	}
	return nil
}

// Update overwrites every writable column of row id with v, zero values
// included.
func (r *GormRepository[T, PT]) Update(ctx context.Context, id uint, v *T) error {
	PT(v).SetKey(id)

	var affected int64
	err := r.store.Run(ctx, r.table, orm.OpUpdate, func(tx *gorm.DB) error {
		res := tx.Model(PT(new(T))).Where("id = ?", id).Select("*").Omit("id").Updates(v)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("%s: update %d: %w", r.table, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository[T, PT]) Delete(ctx context.Context, id uint) error {
	var affected int64
	err := r.store.Run(ctx, r.table, orm.OpDelete, func(tx *gorm.DB) error {
		res := tx.Delete(PT(new(T)), id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("%s: delete %d: %w", r.table, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
