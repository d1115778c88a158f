package models

import "github.com/shopspring/decimal"

// Product is a catalogue item supplied by one Supplier.
type Product struct {
	Base
	Name        string          `gorm:"column:nombre;size:255;index"      json:"nombre"`
	Description string          `gorm:"column:descripcion"                json:"descripcion"`
	Price       decimal.Decimal `gorm:"column:precio;type:decimal(10,2)"  json:"precio"`
	Stock       int             `gorm:"column:stock"                      json:"stock"`
	Category    string          `gorm:"column:categoria;size:100"         json:"categoria"`
	SupplierID  uint            `gorm:"column:proveedor_id;index"         json:"proveedor_id"`
}

func (Product) TableName() string { return "Productos" }
