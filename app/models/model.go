// Package models holds the gorm models for every rincon table. Column and
// JSON names follow the existing Spanish schema.
package models

import "github.com/shopspring/decimal"

func init() {
	// Money goes over the wire as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base carries the store-assigned auto-increment id.
type Base struct {
	ID uint `gorm:"primaryKey;column:id" json:"id"`
}

func (b Base) Key() uint       { return b.ID }
func (b *Base) SetKey(id uint) { b.ID = id }

// Entity is satisfied by a pointer to any model in this package.
type Entity[T any] interface {
	*T
	Key() uint
	SetKey(id uint)
	TableName() string
}

// All returns one zero value of every model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Supplier{},
		&Product{},
		&User{},
		&Purchase{},
		&PurchaseLine{},
		&Sale{},
		&SaleLine{},
	}
}
