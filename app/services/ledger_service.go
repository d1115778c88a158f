package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	"github.com/shashiranjanraj/rincon/pkg/cache"
	"github.com/shashiranjanraj/rincon/pkg/logger"
	"github.com/shashiranjanraj/rincon/pkg/orm"
)

// LedgerService writes a sale or purchase together with its lines.
type LedgerService struct {
	store *orm.Store
	cache cache.Store
	now   func() time.Time
}

// NewLedgerService builds the service. c may be nil.
func NewLedgerService(store *orm.Store, c cache.Store) *LedgerService {
	return &LedgerService{store: store, cache: c, now: time.Now}
}

// CreateSale inserts sale and lines in one transaction and returns the sale
// id. A zero total is replaced by the sum of the line subtotals. A zero date
// becomes the current time.
func (s *LedgerService) CreateSale(ctx context.Context, sale *models.Sale, lines []models.SaleLine) (uint, error) {
	sale.ID = 0
	if sale.Date.IsZero() {
		sale.Date = s.now().UTC()
	}
	if sale.Total.IsZero() && len(lines) > 0 {
		sum := decimal.Zero
		for _, l := range lines {
			sum = sum.Add(l.Subtotal())
		}
		sale.Total = sum
	}

	err := s.store.Transaction(ctx, sale.TableName(), func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].ID = 0
			lines[i].SaleID = sale.ID
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return 0, fmt.Errorf("Ventas: create with lines: %w", err)
	}

	s.evict(ctx, sale.TableName(), models.SaleLine{}.TableName())
	return sale.ID, nil
}

// CreatePurchase is CreateSale for purchases.
func (s *LedgerService) CreatePurchase(ctx context.Context, p *models.Purchase, lines []models.PurchaseLine) (uint, error) {
	p.ID = 0
	if p.Date.IsZero() {
		p.Date = s.now().UTC()
	}
	if p.Total.IsZero() && len(lines) > 0 {
		sum := decimal.Zero
		for _, l := range lines {
			sum = sum.Add(l.Subtotal())
		}
		p.Total = sum
	}

	err := s.store.Transaction(ctx, p.TableName(), func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].ID = 0
			lines[i].PurchaseID = p.ID
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return 0, fmt.Errorf("Compras: create with lines: %w", err)
	}

	s.evict(ctx, p.TableName(), models.PurchaseLine{}.TableName())
	return p.ID, nil
}

// LinesOfSale returns the lines of sale id, or ErrNotFound when the sale
// does not exist.
func (s *LedgerService) LinesOfSale(ctx context.Context, id uint) ([]models.SaleLine, error) {
	out := []models.SaleLine{}
	err := s.store.Run(ctx, models.SaleLine{}.TableName(), orm.OpSelect, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Sale{}, id); err != nil {
			return err
		}
		return tx.Where("venta_id = ?", id).Order("id").Find(&out).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Detalle_ventas: lines of %d: %w", id, err)
	}
	return out, nil
}

// LinesOfPurchase returns the lines of purchase id.
func (s *LedgerService) LinesOfPurchase(ctx context.Context, id uint) ([]models.PurchaseLine, error) {
	out := []models.PurchaseLine{}
	err := s.store.Run(ctx, models.PurchaseLine{}.TableName(), orm.OpSelect, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Purchase{}, id); err != nil {
			return err
		}
		return tx.Where("compra_id = ?", id).Order("id").Find(&out).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Detalle_compras: lines of %d: %w", id, err)
	}
	return out, nil
}

func exists(tx *gorm.DB, model interface{}, id uint) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *LedgerService) evict(ctx context.Context, tables ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, len(tables))
	for i, t := range tables {
		keys[i] = repositories.ListKey(t)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("cache: evict failed", "keys", keys, "error", err)
	}
}
