package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	appctx "github.com/shashiranjanraj/rincon/pkg/ctx"
	"github.com/shashiranjanraj/rincon/pkg/event"
	"github.com/shashiranjanraj/rincon/pkg/logger"
)

// Ledger is what the ledger controller needs. *services.LedgerService
// implements it.
type Ledger interface {
	CreateSale(ctx context.Context, sale *models.Sale, lines []models.SaleLine) (uint, error)
	CreatePurchase(ctx context.Context, p *models.Purchase, lines []models.PurchaseLine) (uint, error)
	LinesOfSale(ctx context.Context, id uint) ([]models.SaleLine, error)
	LinesOfPurchase(ctx context.Context, id uint) ([]models.PurchaseLine, error)
}

// LedgerController creates sales and purchases together with their lines.
type LedgerController struct {
	ledger Ledger
	events Notifier
}

func NewLedgerController(ledger Ledger, events Notifier) *LedgerController {
	return &LedgerController{ledger: ledger, events: events}
}

type saleRequest struct {
	models.Sale
	Lines []models.SaleLine `json:"detalles"`
}

type purchaseRequest struct {
	models.Purchase
	Lines []models.PurchaseLine `json:"detalles"`
}

var (
	saleLabels     = Feminine("Venta")
	purchaseLabels = Feminine("Compra")
)

// StoreSale is POST /ventas.
func (lc *LedgerController) StoreSale(c *appctx.Context) {
	var req saleRequest
	if !c.BindJSON(&req) {
		return
	}
	id, err := lc.ledger.CreateSale(c.Context(), &req.Sale, req.Lines)
	if err != nil {
		lc.fail(c, err, saleLabels)
		return
	}
	lc.notify("ventas", id)
	c.Created(id)
}

// StorePurchase is POST /compras.
func (lc *LedgerController) StorePurchase(c *appctx.Context) {
	var req purchaseRequest
	if !c.BindJSON(&req) {
		return
	}
	id, err := lc.ledger.CreatePurchase(c.Context(), &req.Purchase, req.Lines)
	if err != nil {
		lc.fail(c, err, purchaseLabels)
		return
	}
	lc.notify("compras", id)
	c.Created(id)
}

// SaleLines is GET /ventas/{id}/detalles.
func (lc *LedgerController) SaleLines(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(saleLabels.NotFound)
		return
	}
	lines, err := lc.ledger.LinesOfSale(c.Context(), id)
	if err != nil {
		lc.fail(c, err, saleLabels)
		return
	}
	c.Success(lines)
}

// PurchaseLines is GET /compras/{id}/detalles.
func (lc *LedgerController) PurchaseLines(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(purchaseLabels.NotFound)
		return
	}
	lines, err := lc.ledger.LinesOfPurchase(c.Context(), id)
	if err != nil {
		lc.fail(c, err, purchaseLabels)
		return
	}
	c.Success(lines)
}

func (lc *LedgerController) notify(resource string, id uint) {
	if lc.events != nil {
		lc.events.FireAsync(event.Change(resource, event.Created, id))
	}
}

func (lc *LedgerController) fail(c *appctx.Context, err error, labels Labels) {
	if errors.Is(err, repositories.ErrNotFound) {
		c.NotFound(labels.NotFound)
		return
	}
	logger.WithCtx(c.Context()).Error("ledger: request failed", "error", err)
	c.Error(http.StatusInternalServerError, err.Error())
}
