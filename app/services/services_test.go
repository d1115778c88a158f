package services_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	"github.com/shashiranjanraj/rincon/app/services"
	"github.com/shashiranjanraj/rincon/pkg/auth"
	"github.com/shashiranjanraj/rincon/pkg/cache"
	"github.com/shashiranjanraj/rincon/pkg/orm"
	"github.com/shashiranjanraj/rincon/pkg/storage"
)

func newStore(t *testing.T) *orm.Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return orm.New(db, nil)
}

func newAuth(t *testing.T) (*services.AuthService, *auth.Manager) {
	t.Helper()
	tokens := auth.New(auth.Options{Secret: []byte("test"), Cost: 4})
	return services.NewAuthService(repositories.NewUserRepository(newStore(t)), tokens), tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newAuth(t)

	id, err := svc.Register(ctx, services.UserInput{Name: "Ana", Email: "ana@rincon.mx", Password: "secreto"}, nil)
	require.NoError(t, err)

	u, err := svc.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, u.Role)
	assert.NotEqual(t, "secreto", u.Password)

	token, err := svc.Login(ctx, "ana@rincon.mx", "secreto")
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, models.RoleSeller, claims.Role)

	_, err = svc.Login(ctx, "nadie@rincon.mx", "secreto")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	_, err = svc.Login(ctx, "ana@rincon.mx", "otra")
	assert.ErrorIs(t, err, services.ErrWrongPassword)
}

func TestAuthService_AdminRoleNeedsAdminCaller(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)
	in := services.UserInput{Name: "Root", Email: "root@rincon.mx", Password: "secreto", Role: models.RoleAdmin}

	_, err := svc.Register(ctx, in, nil)
	assert.ErrorIs(t, err, services.ErrAdminRequired)

	_, err = svc.Register(ctx, in, &auth.Claims{UserID: 9, Role: models.RoleSeller})
	assert.ErrorIs(t, err, services.ErrAdminRequired)

	id, err := svc.Register(ctx, in, &auth.Claims{UserID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)

	u, err := svc.Find(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestAuthService_UpdateRehashes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	id, err := svc.Register(ctx, services.UserInput{Name: "Ana", Email: "ana@rincon.mx", Password: "secreto"}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, id, services.UserInput{Name: "Ana M", Email: "ana@rincon.mx", Password: "nueva"}, nil))
	_, err = svc.Login(ctx, "ana@rincon.mx", "secreto")
	assert.ErrorIs(t, err, services.ErrWrongPassword)
	_, err = svc.Login(ctx, "ana@rincon.mx", "nueva")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.Update(ctx, 99, services.UserInput{Email: "x@rincon.mx", Password: "x"}, nil), repositories.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, id))
	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLedgerService_CreateSaleComputesTotal(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ledger := services.NewLedgerService(store, nil)

	sale := &models.Sale{UserID: 1}
	lines := []models.SaleLine{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
		{ProductID: 2, Quantity: 3, UnitPrice: decimal.RequireFromString("1.25")},
	}
	before := time.Now().UTC().Add(-time.Second)
	id, err := ledger.CreateSale(ctx, sale, lines)
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(decimal.RequireFromString("24.75")), sale.Total.String())
	assert.True(t, sale.Date.After(before))

	got, err := ledger.LinesOfSale(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, l := range got {
		assert.Equal(t, id, l.SaleID)
	}

	_, err = ledger.LinesOfSale(ctx, id+1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestLedgerService_ExplicitTotalIsKept(t *testing.T) {
	ctx := context.Background()
	ledger := services.NewLedgerService(newStore(t), nil)

	p := &models.Purchase{SupplierID: 1, Total: decimal.NewFromInt(100)}
	id, err := ledger.CreatePurchase(ctx, p, []models.PurchaseLine{
		{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	assert.True(t, p.Total.Equal(decimal.NewFromInt(100)))

	lines, err := ledger.LinesOfPurchase(ctx, id)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestLedgerService_BadLineRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	mem := cache.NewMemory()
	ledger := services.NewLedgerService(store, mem)

	_, err := ledger.CreatePurchase(ctx, &models.Purchase{SupplierID: 1}, []models.PurchaseLine{
		{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		{ProductID: 1, Quantity: -1, UnitPrice: decimal.NewFromInt(5)},
	})
	require.Error(t, err)

	var purchases, lines int64
	require.NoError(t, store.DB().Model(&models.Purchase{}).Count(&purchases).Error)
	require.NoError(t, store.DB().Model(&models.PurchaseLine{}).Count(&lines).Error)
	assert.Zero(t, purchases)
	assert.Zero(t, lines)
}

func TestLedgerService_EvictsCachedLists(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	ledger := services.NewLedgerService(newStore(t), mem)

	key := repositories.ListKey(models.Sale{}.TableName())
	require.NoError(t, mem.Set(ctx, key, []models.Sale{}, 0))

	_, err := ledger.CreateSale(ctx, &models.Sale{UserID: 1}, nil)
	require.NoError(t, err)

	var out []models.Sale
	assert.False(t, mem.Get(ctx, key, &out))
}

func TestExportService_WritesEveryTable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.DB().Create(&models.User{Name: "Ana", Email: "ana@rincon.mx", Password: "$2a$hash", Role: models.RoleSeller}).Error)
	require.NoError(t, store.DB().Create(&models.Product{Name: "Widget"}).Error)

	disk, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	files, err := services.NewExportService(store, disk).Export(ctx, "exports")
	require.NoError(t, err)
	require.Len(t, files, len(models.All()))

	var productsFile, usersFile string
	for _, f := range files {
		assert.True(t, strings.HasPrefix(f, "exports/"), f)
		switch {
		case strings.HasSuffix(f, "/Productos.json"):
			productsFile = f
		case strings.HasSuffix(f, "/Usuarios.json"):
			usersFile = f
		}
	}
	require.NotEmpty(t, productsFile)
	require.NotEmpty(t, usersFile)

	data, err := disk.Get(ctx, productsFile)
	require.NoError(t, err)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0]["nombre"])

	data, err = disk.Get(ctx, usersFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "$2a$hash")
}
