// Package app wires rincon's shared dependencies and builds the HTTP
// handler from them.
//
//	a, err := app.Boot()
//	if err != nil { ... }
//	defer a.Close()
//	a.Routes(routes.Register)
//	err = a.Serve(ctx)
//
// This package has no imports of project-specific code (models, routes).
// Project routes are injected through Routes.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/config"
	"github.com/shashiranjanraj/rincon/pkg/auth"
	"github.com/shashiranjanraj/rincon/pkg/cache"
	"github.com/shashiranjanraj/rincon/pkg/connpool"
	"github.com/shashiranjanraj/rincon/pkg/database"
	"github.com/shashiranjanraj/rincon/pkg/event"
	"github.com/shashiranjanraj/rincon/pkg/logger"
	"github.com/shashiranjanraj/rincon/pkg/metrics"
	"github.com/shashiranjanraj/rincon/pkg/middleware"
	"github.com/shashiranjanraj/rincon/pkg/orm"
	"github.com/shashiranjanraj/rincon/pkg/router"
	"github.com/shashiranjanraj/rincon/pkg/sse"
	"github.com/shashiranjanraj/rincon/pkg/ws"
)

// RouteFunc registers routes using the application's dependencies.
type RouteFunc func(r *router.Router, a *Application) error

// Options sizes the pool and selects the optional collaborators.
type Options struct {
	PoolSize     int
	QueueLimit   int           // 0 = unbounded
	QueryTimeout time.Duration // 0 = none
	Cache        cache.Store   // nil disables caching
	CacheTTL     time.Duration
	Auth         auth.Options
	CORS         middleware.CORSOptions
}

// OptionsFromConfig reads every option from config. It fails only when the
// configured cache backend is unreachable.
func OptionsFromConfig() (Options, error) {
	store, err := cache.FromConfig()
	if err != nil {
		return Options{}, err
	}

	cors := middleware.DefaultCORSOptions()
	cors.AllowedOrigins = config.CORSOrigins()

	return Options{
		PoolSize:     config.DBMaxOpenConns(),
		QueueLimit:   config.DBQueueLimit(),
		QueryTimeout: config.DBQueryTimeout(),
		Cache:        store,
		CacheTTL:     config.CacheTTL(),
		Auth:         auth.OptionsFromConfig(),
		CORS:         cors,
	}, nil
}

// Application holds everything a handler may need. Fields are read-only
// after New.
type Application struct {
	DB       *gorm.DB
	Pool     *connpool.Pool
	Store    *orm.Store
	Cache    cache.Store
	CacheTTL time.Duration
	Auth     *auth.Manager
	Events   *event.Dispatcher
	Hub      *ws.Hub
	Feed     *sse.Broker

	cors     middleware.CORSOptions
	routeFns []RouteFunc
	stopHub  context.CancelFunc
}

// New wires the application around an open database handle and starts the
// change-feed hub. Call Close when done.
func New(db *gorm.DB, opts Options) *Application {
	size := opts.PoolSize
	if size <= 0 {
		size = 10
	}
	pool := connpool.New(size, opts.QueueLimit).WithObserver(metrics.PoolObserver{})

	cors := opts.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors = middleware.DefaultCORSOptions()
	}

	a := &Application{
		DB:       db,
		Pool:     pool,
		Store:    orm.New(db, pool).WithTimeout(opts.QueryTimeout),
		Cache:    opts.Cache,
		CacheTTL: opts.CacheTTL,
		Auth:     auth.New(opts.Auth),
		Events:   event.NewDispatcher(),
		Hub:      ws.NewHub(),
		Feed:     sse.NewBroker(),
		cors:     cors,
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.stopHub = cancel
	go a.Hub.Run(ctx)

	a.Events.Listen(event.Wildcard, func(e event.Event) {
		if err := a.Hub.BroadcastJSON(e); err != nil {
			logger.Warn("ws: broadcast failed", "event", e.Name, "error", err)
		}
		if err := a.Feed.PublishJSON(e.Name, e); err != nil {
			logger.Warn("sse: publish failed", "event", e.Name, "error", err)
		}
	})

	return a
}

// Boot loads config, connects to the database and calls New.
func Boot() (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := database.Connect(database.OptionsFromConfig())
	if err != nil {
		return nil, err
	}

	opts, err := OptionsFromConfig()
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	return New(db, opts), nil
}

// Routes adds route-registration callbacks, run in order when the router
// is built.
func (a *Application) Routes(fns ...RouteFunc) *Application {
	a.routeFns = append(a.routeFns, fns...)
	return a
}

// Close stops the hub, closes the pool, the cache connection and the
// database.
func (a *Application) Close() error {
	a.stopHub()
	a.Pool.Close()
	if c, ok := a.Cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("cache: close failed", "error", err)
		}
	}
	return database.Close(a.DB)
}
