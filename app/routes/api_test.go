package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/routes"
	"github.com/shashiranjanraj/rincon/pkg/app"
	"github.com/shashiranjanraj/rincon/pkg/auth"
	"github.com/shashiranjanraj/rincon/pkg/cache"
	"github.com/shashiranjanraj/rincon/pkg/testkit"
)

type env struct {
	t *testing.T
	h http.Handler
}

func newEnv(t *testing.T, withCache bool) *env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	opts := app.Options{
		PoolSize: 2,
		Auth:     auth.Options{Secret: []byte("test-secret"), Cost: 4},
	}
	if withCache {
		opts.Cache = cache.NewMemory()
	}

	a := app.New(db, opts).Routes(routes.Register)
	t.Cleanup(func() { a.Close() })

	h, err := a.Handler()
	require.NoError(t, err)
	return &env{t: t, h: h}
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// login registers a seller and returns its token.
func (e *env) login(email string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/registro", "", map[string]string{
		"nombre": "Ana", "email": email, "password": "secreto",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "secreto"})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]string](e.t, rec)
	require.NotEmpty(e.t, body["token"])
	return body["token"]
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")

	rec := e.do(http.MethodPost, "/login", "", map[string]string{"email": "nadie@rincon.mx", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Usuario no encontrado", decode[map[string]any](t, rec)["error"])

	rec = e.do(http.MethodPost, "/login", "", map[string]string{"email": "ana@rincon.mx", "password": "otra"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Contraseña incorrecta", decode[map[string]any](t, rec)["error"])

	rec = e.do(http.MethodGet, "/productos", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(http.MethodPost, "/registro", "", map[string]string{
		"nombre": "Ñoño", "email": "nono@rincon.mx", "password": strings.Repeat("ñ", 50),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Datos inválidos", body["error"])
	assert.Contains(t, body["errors"], "password")
}

func TestGuardRejectsMissingAndBadTokens(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(http.MethodGet, "/productos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token requerido", decode[map[string]any](t, rec)["error"])

	rec = e.do(http.MethodGet, "/ventas", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token inválido", decode[map[string]any](t, rec)["error"])
}

func TestRegisterAdminNeedsAdminCaller(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(http.MethodPost, "/registro", "", map[string]string{
		"nombre": "Root", "email": "root@rincon.mx", "password": "secreto", "rol": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	seller := e.login("ana@rincon.mx")
	rec = e.do(http.MethodPost, "/registro", seller, map[string]string{
		"nombre": "Root", "email": "root@rincon.mx", "password": "secreto", "rol": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUsersAreAdminOrSelf(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/usuarios", token, nil).Code)

	rec := e.do(http.MethodGet, "/usuarios/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[map[string]any](t, rec)
	assert.Equal(t, "ana@rincon.mx", user["email"])
	assert.NotContains(t, user, "password")

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/usuarios/2", token, nil).Code)
}

func TestProductCRUD(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		withCache := withCache
		name := "nocache"
		if withCache {
			name = "cache"
		}
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, withCache)
			token := e.login("ana@rincon.mx")

			rec := e.do(http.MethodPost, "/productos", token, map[string]any{
				"nombre": "Widget", "descripcion": "A", "precio": 19.99, "stock": 5, "categoria": "X", "proveedor_id": 1,
			})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			id := decode[map[string]float64](t, rec)["id"]
			require.NotZero(t, id)

			rec = e.do(http.MethodGet, "/productos/1", token, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			got := decode[map[string]any](t, rec)
			assert.Equal(t, "Widget", got["nombre"])
			assert.Equal(t, "A", got["descripcion"])
			assert.Equal(t, 19.99, got["precio"])
			assert.Equal(t, float64(5), got["stock"])
			assert.Equal(t, "X", got["categoria"])
			assert.Equal(t, float64(1), got["proveedor_id"])

			rec = e.do(http.MethodPut, "/productos/1", token, map[string]any{
				"nombre": "Widget 2", "precio": 20, "stock": 4, "proveedor_id": 1,
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "Producto actualizado correctamente", decode[map[string]string](t, rec)["message"])

			rec = e.do(http.MethodGet, "/productos", token, nil)
			list := decode[[]map[string]any](t, rec)
			require.Len(t, list, 1)
			assert.Equal(t, "Widget 2", list[0]["nombre"])

			rec = e.do(http.MethodDelete, "/productos/1", token, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Producto eliminado correctamente", decode[map[string]string](t, rec)["message"])

			rec = e.do(http.MethodGet, "/productos/1", token, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Producto no encontrado", decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestMissingIDsAre404(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")

	rec := e.do(http.MethodPut, "/proveedores/99", token, map[string]any{"nombre": "Nadie"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Proveedor no encontrado", decode[map[string]string](t, rec)["error"])

	rec = e.do(http.MethodDelete, "/compras/99", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Compra no encontrada", decode[map[string]string](t, rec)["error"])

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/ventas/abc", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/ventas/5/detalles", token, nil).Code)
}

func TestMalformedBodyIs400(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")

	rec := e.do(http.MethodPost, "/proveedores", token, `{"nombre":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleWithLines(t *testing.T) {
	e := newEnv(t, true)
	token := e.login("ana@rincon.mx")

	rec := e.do(http.MethodPost, "/ventas", token, map[string]any{
		"usuario_id": 1,
		"detalles": []map[string]any{
			{"producto_id": 1, "cantidad": 2, "precio_unitario": 10.5},
			{"producto_id": 2, "cantidad": 1, "precio_unitario": 4},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodGet, "/ventas/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sale := decode[map[string]any](t, rec)
	assert.Equal(t, float64(25), sale["total"])
	assert.NotEmpty(t, sale["fecha"])

	rec = e.do(http.MethodGet, "/ventas/1/detalles", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := decode[[]map[string]any](t, rec)
	require.Len(t, lines, 2)
	assert.Equal(t, float64(1), lines[0]["venta_id"])

	assert.Len(t, decode[[]map[string]any](t, e.do(http.MethodGet, "/detalle_ventas", token, nil)), 2)
}

func TestSaleRollsBackOnBadLine(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")

	rec := e.do(http.MethodPost, "/ventas", token, map[string]any{
		"usuario_id": 1,
		"detalles": []map[string]any{
			{"producto_id": 1, "cantidad": 1, "precio_unitario": 3},
			{"producto_id": 1, "cantidad": 0, "precio_unitario": 3},
		},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.JSONEq(t, `[]`, e.do(http.MethodGet, "/ventas", token, nil).Body.String())
	assert.JSONEq(t, `[]`, e.do(http.MethodGet, "/detalle_ventas", token, nil).Body.String())
}

func TestPurchaseWithLines(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")

	rec := e.do(http.MethodPost, "/compras", token, map[string]any{
		"proveedor_id": 1,
		"total":        100,
		"detalles": []map[string]any{
			{"producto_id": 1, "cantidad": 10, "precio_unitario": 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	purchase := decode[map[string]any](t, e.do(http.MethodGet, "/compras/1", token, nil))
	assert.Equal(t, float64(100), purchase["total"])

	lines := decode[[]map[string]any](t, e.do(http.MethodGet, "/compras/1/detalles", token, nil))
	require.Len(t, lines, 1)
	assert.Equal(t, float64(1), lines[0]["compra_id"])
}

func TestConcurrentReadsShareTheGate(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/proveedores", token, map[string]any{"nombre": "Acme"}).Code)

	const n = 40
	codes := make([]int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/proveedores", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			e.h.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
}

func TestGraphQLQuery(t *testing.T) {
	e := newEnv(t, false)
	token := e.login("ana@rincon.mx")
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/productos", token, map[string]any{
		"nombre": "Widget", "precio": 2.5, "stock": 3,
	}).Code)

	rec := e.do(http.MethodPost, "/graphql", token, map[string]any{
		"query": `{ productos { id nombre precio } producto(id: 7) { id } }`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"data":{"productos":[{"id":1,"nombre":"Widget","precio":2.5}],"producto":null}}`,
		rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/graphql?query=%7Bproductos%7Bid%7D%7D", "", nil).Code)
}

func TestFrameworkEndpoints(t *testing.T) {
	e := newEnv(t, false)

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/health", "", nil).Code)

	req := httptest.NewRequest(http.MethodOptions, "/productos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = e.do(http.MethodGet, "/nada", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Ruta no encontrada", decode[map[string]string](t, rec)["error"])
}

func TestCatalogScenarios(t *testing.T) {
	e := newEnv(t, true)
	testkit.RunFile(t, e.h, "testdata/catalog.json")
}
