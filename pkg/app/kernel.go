package app

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/rincon/pkg/database"
	"github.com/shashiranjanraj/rincon/pkg/metrics"
	"github.com/shashiranjanraj/rincon/pkg/middleware"
	"github.com/shashiranjanraj/rincon/pkg/reqid"
	"github.com/shashiranjanraj/rincon/pkg/response"
	"github.com/shashiranjanraj/rincon/pkg/router"
)

// Router builds the router: global middleware, the framework endpoints,
// then every registered RouteFunc.
func (a *Application) Router() (*router.Router, error) {
	r := router.New()

	// Outermost first: metrics see total latency, recovery sits under them,
	// the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(a.cors))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Ruta no encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	r.Get("/health", "health", a.health)
	r.Get("/metrics", "metrics", metrics.Handler())

	for _, fn := range a.routeFns {
		if err := fn(r, a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Handler is Router().Handler().
func (a *Application) Handler() (http.Handler, error) {
	r, err := a.Router()
	if err != nil {
		return nil, err
	}
	return r.Handler(), nil
}

type healthBody struct {
	Status string `json:"status"`
}

func (a *Application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, a.DB); err != nil {
		response.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, healthBody{Status: "ok"})
}
