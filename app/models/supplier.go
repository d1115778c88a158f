package models

type Supplier struct {
	Base
	Name    string `gorm:"column:nombre;size:255"    json:"nombre"`
	Contact string `gorm:"column:contacto;size:255"  json:"contacto"`
	Phone   string `gorm:"column:telefono;size:50"   json:"telefono"`
	Email   string `gorm:"column:email;size:255"     json:"email"`
	Address string `gorm:"column:direccion;size:255" json:"direccion"`
}

func (Supplier) TableName() string { return "Proveedores" }
