package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is recorded by the user who made it.
type Sale struct {
	Base
	Date   time.Time       `gorm:"column:fecha"                    json:"fecha"`
	UserID uint            `gorm:"column:usuario_id;index"         json:"usuario_id"`
	Total  decimal.Decimal `gorm:"column:total;type:decimal(12,2)" json:"total"`
}

func (Sale) TableName() string { return "Ventas" }

type SaleLine struct {
	Base
	SaleID    uint            `gorm:"column:venta_id;index"                                   json:"venta_id"`
	ProductID uint            `gorm:"column:producto_id;index"                                json:"producto_id"`
	Quantity  int             `gorm:"column:cantidad;check:chk_detalle_ventas_cantidad,cantidad > 0" json:"cantidad"`
	UnitPrice decimal.Decimal `gorm:"column:precio_unitario;type:decimal(10,2)"               json:"precio_unitario"`
}

func (SaleLine) TableName() string { return "Detalle_ventas" }

func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
