package repositories_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	"github.com/shashiranjanraj/rincon/pkg/cache"
	"github.com/shashiranjanraj/rincon/pkg/connpool"
	"github.com/shashiranjanraj/rincon/pkg/orm"
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

	pool := connpool.New(2, 0)
	t.Cleanup(pool.Close)
	return orm.New(db, pool)
}

func TestGormRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGormRepository[models.Product](newStore(t))
	assert.Equal(t, "Productos", repo.Table())

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	p := models.Product{Name: "Widget", Price: decimal.RequireFromString("19.99"), Stock: 5}
	p.ID = 42
	require.NoError(t, repo.Create(ctx, &p))
	assert.Equal(t, uint(1), p.ID, "client supplied id is discarded")

	got, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")))

	require.NoError(t, repo.Update(ctx, p.ID, &models.Product{Name: "Gadget"}))
	got, err = repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got.Name)
	assert.Zero(t, got.Stock, "update overwrites every column")

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Find(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGormRepository_MissingRows(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGormRepository[models.Supplier](newStore(t))

	_, err := repo.Find(ctx, 9)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, 9, &models.Supplier{Name: "x"}), repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 9), repositories.ErrNotFound)
}

func TestGormRepository_FindBy(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGormRepository[models.Product](newStore(t))
	for _, cat := range []string{"a", "b", "a"} {
		require.NoError(t, repo.Create(ctx, &models.Product{Name: "p", Category: cat}))
	}

	rows, err := repo.FindBy(ctx, "categoria", "a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Less(t, rows[0].ID, rows[1].ID)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewUserRepository(newStore(t))
	require.NoError(t, repo.Create(ctx, &models.User{Name: "Ana", Email: "ana@rincon.mx", Password: "hash", Role: models.RoleSeller}))

	u, err := repo.FindByEmail(ctx, "ana@rincon.mx")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	_, err = repo.FindByEmail(ctx, "nadie@rincon.mx")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCached_ServesFromCacheUntilWrite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	inner := repositories.NewGormRepository[models.Supplier](store)
	mem := cache.NewMemory()
	repo := repositories.NewCached[models.Supplier](inner, mem, inner.Table(), 0)

	require.NoError(t, repo.Create(ctx, &models.Supplier{Name: "Acme"}))

	list, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, mem.Len())

	// A write behind the cache's back is not seen until a write through it.
	require.NoError(t, store.DB().Create(&models.Supplier{Name: "Otro"}).Error)
	list, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Create(ctx, &models.Supplier{Name: "Tercero"}))
	list, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	s, err := repo.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", s.Name)

	require.NoError(t, repo.Update(ctx, 1, &models.Supplier{Name: "Acme SA"}))
	s, err = repo.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme SA", s.Name)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Find(ctx, 1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestNewCached_NilStoreIsPassThrough(t *testing.T) {
	inner := repositories.NewGormRepository[models.Sale](newStore(t))
	assert.Same(t, inner, repositories.NewCached[models.Sale](inner, nil, inner.Table(), 0))
}
