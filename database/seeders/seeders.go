package seeders

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/config"
	"github.com/shashiranjanraj/rincon/pkg/auth"
	"github.com/shashiranjanraj/rincon/pkg/logger"
)

func init() {
	Register("admin", SeedAdmin)
	Register("catalogo", SeedCatalog)
}

// SeedAdmin creates the ADMIN_EMAIL account when ADMIN_PASSWORD is set and
// the account does not exist yet.
func SeedAdmin(db *gorm.DB) error {
	password := config.AdminPassword()
	if password == "" {
		logger.Warn("seeder: ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	hash, err := auth.New(auth.OptionsFromConfig()).HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     "Administrador",
		Email:    config.AdminEmail(),
		Password: hash,
		Role:     models.RoleAdmin,
	}
	return db.Where("email = ?", admin.Email).FirstOrCreate(&admin).Error
}

// SeedCatalog adds one supplier and one product to an empty catalog.
func SeedCatalog(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Supplier{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		supplier := models.Supplier{
			Name:    "Distribuidora Central",
			Contact: "Laura Méndez",
			Phone:   "555-0100",
			Email:   "ventas@central.example",
			Address: "Av. Reforma 100",
		}
		if err := tx.Create(&supplier).Error; err != nil {
			return err
		}
		return tx.Create(&models.Product{
			Name:        "Cuaderno profesional",
			Description: "100 hojas, raya",
			Price:       decimal.RequireFromString("45.50"),
			Stock:       120,
			Category:    "papelería",
			SupplierID:  supplier.ID,
		}).Error
	})
}
