package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_proveedores_table", table(&models.Supplier{}))
	migration.Register("20260101000001_create_productos_table", table(&models.Product{}))
	migration.Register("20260101000002_create_usuarios_table", table(&models.User{}))
	migration.Register("20260101000003_create_compras_table", table(&models.Purchase{}))
	migration.Register("20260101000004_create_detalle_compras_table", table(&models.PurchaseLine{}))
	migration.Register("20260101000005_create_ventas_table", table(&models.Sale{}))
	migration.Register("20260101000006_create_detalle_ventas_table", table(&models.SaleLine{}))
}

// createTable creates (Up) or drops (Down) the table of one model.
type createTable struct {
	model interface{}
}

func table(model interface{}) *createTable { return &createTable{model: model} }

func (m *createTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.model)
}
