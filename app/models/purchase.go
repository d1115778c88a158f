package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a stock purchase from a supplier. Total is not reconciled
// against its lines by the store.
type Purchase struct {
	Base
	Date       time.Time       `gorm:"column:fecha"                     json:"fecha"`
	Total      decimal.Decimal `gorm:"column:total;type:decimal(12,2)"  json:"total"`
	SupplierID uint            `gorm:"column:proveedor_id;index"        json:"proveedor_id"`
}

func (Purchase) TableName() string { return "Compras" }

type PurchaseLine struct {
	Base
	PurchaseID uint            `gorm:"column:compra_id;index"                                  json:"compra_id"`
	ProductID  uint            `gorm:"column:producto_id;index"                                json:"producto_id"`
	Quantity   int             `gorm:"column:cantidad;check:chk_detalle_compras_cantidad,cantidad > 0" json:"cantidad"`
	UnitPrice  decimal.Decimal `gorm:"column:precio_unitario;type:decimal(10,2)"               json:"precio_unitario"`
}

func (PurchaseLine) TableName() string { return "Detalle_compras" }

// Subtotal is Quantity * UnitPrice.
func (l PurchaseLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
