package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/rincon/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func header(key, val string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(key, val)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupMiddlewareOrder(t *testing.T) {
	r := router.New()
	g := r.Group("/api", header("X-Trace", "group"))
	g.Put("/productos/{id}", "productos.update", ok, header("X-Trace", "route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/productos/3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"group", "route"}, rec.Header().Values("X-Trace"))
}

func TestRoutesKeepsRegistrationOrder(t *testing.T) {
	r := router.New()
	r.Get("/productos", "productos.index", ok)
	r.Post("/productos", "productos.store", ok)
	r.Delete("/productos/{id}", "", ok)
	r.HandleFunc(http.MethodOptions, "/x", "x", ok)

	assert.Equal(t, []router.RouteInfo{
		{Method: http.MethodGet, Path: "/productos", Name: "productos.index"},
		{Method: http.MethodPost, Path: "/productos", Name: "productos.store"},
		{Method: http.MethodDelete, Path: "/productos/{id}"},
		{Method: http.MethodOptions, Path: "/x", Name: "x"},
	}, r.Routes())
}

func TestURL(t *testing.T) {
	r := router.New()
	r.Group("ventas").Get("{id}/detalles", "ventas.detalles", ok)

	u, err := r.URL("ventas.detalles", map[string]string{"id": "9"})
	require.NoError(t, err)
	assert.Equal(t, "/ventas/9/detalles", u)

	_, err = r.URL("ventas.detalles", nil)
	assert.Error(t, err)

	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}

func TestNotFoundHandler(t *testing.T) {
	r := router.New()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
