package routes

import (
	"fmt"

	"github.com/shashiranjanraj/rincon/app/controllers"
	appgraphql "github.com/shashiranjanraj/rincon/app/graphql"
	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	"github.com/shashiranjanraj/rincon/app/services"
	"github.com/shashiranjanraj/rincon/pkg/app"
	appctx "github.com/shashiranjanraj/rincon/pkg/ctx"
	"github.com/shashiranjanraj/rincon/pkg/graphql"
	"github.com/shashiranjanraj/rincon/pkg/middleware"
	"github.com/shashiranjanraj/rincon/pkg/rbac"
	"github.com/shashiranjanraj/rincon/pkg/router"
)

// crud is implemented by every ResourceController instantiation.
type crud interface {
	Resource() string
	Index(c *appctx.Context)
	Show(c *appctx.Context)
	Store(c *appctx.Context)
	Update(c *appctx.Context)
	Destroy(c *appctx.Context)
}

// cached wraps the gorm repository of T with the configured cache.
func cached[T any, PT models.Entity[T]](a *app.Application) repositories.Repository[T] {
	inner := repositories.NewGormRepository[T, PT](a.Store)
	return repositories.NewCached[T](inner, a.Cache, inner.Table(), a.CacheTTL)
}

// Register mounts the public auth routes and every guarded resource route.
func Register(r *router.Router, a *app.Application) error {
	products := cached[models.Product](a)
	suppliers := cached[models.Supplier](a)
	purchases := cached[models.Purchase](a)
	sales := cached[models.Sale](a)
	purchaseLines := cached[models.PurchaseLine](a)
	saleLines := cached[models.SaleLine](a)

	ledgerService := services.NewLedgerService(a.Store, a.Cache)
	authService := services.NewAuthService(repositories.NewUserRepository(a.Store), a.Auth)

	authController := controllers.NewAuthController(authService, a.Events)
	ledgerController := controllers.NewLedgerController(ledgerService, a.Events)

	schema, err := appgraphql.Schema(appgraphql.Sources{
		Products:      products,
		Suppliers:     suppliers,
		Purchases:     purchases,
		Sales:         sales,
		PurchaseLines: purchaseLines,
		SaleLines:     saleLines,
		Lines:         ledgerService,
	})
	if err != nil {
		return fmt.Errorf("routes: graphql schema: %w", err)
	}

	// Public.
	r.Post("/registro", "auth.register", appctx.Wrap(authController.Register), middleware.OptionalAuthenticate(a.Auth))
	r.Post("/login", "auth.login", appctx.Wrap(authController.Login))

	api := r.Group("", middleware.Authenticate(a.Auth))

	mount(api, controllers.NewResourceController[models.Product]("productos", products, controllers.Masculine("Producto"), a.Events), nil)
	mount(api, controllers.NewResourceController[models.Supplier]("proveedores", suppliers, controllers.Masculine("Proveedor"), a.Events), nil)
	mount(api, controllers.NewResourceController[models.Purchase]("compras", purchases, controllers.Feminine("Compra"), a.Events), ledgerController.StorePurchase)
	mount(api, controllers.NewResourceController[models.Sale]("ventas", sales, controllers.Feminine("Venta"), a.Events), ledgerController.StoreSale)
	mount(api, controllers.NewResourceController[models.PurchaseLine]("detalle_compras", purchaseLines, controllers.Masculine("Detalle de compra"), a.Events), nil)
	mount(api, controllers.NewResourceController[models.SaleLine]("detalle_ventas", saleLines, controllers.Masculine("Detalle de venta"), a.Events), nil)

	api.Get("/compras/{id}/detalles", "compras.detalles", appctx.Wrap(ledgerController.PurchaseLines))
	api.Get("/ventas/{id}/detalles", "ventas.detalles", appctx.Wrap(ledgerController.SaleLines))

	self := rbac.SelfOrRole("id", models.RoleAdmin)
	api.Get("/usuarios", "usuarios.index", appctx.Wrap(authController.Index), rbac.HasRole(models.RoleAdmin))
	api.Get("/usuarios/{id}", "usuarios.show", appctx.Wrap(authController.Show), self)
	api.Put("/usuarios/{id}", "usuarios.update", appctx.Wrap(authController.Update), self)
	api.Delete("/usuarios/{id}", "usuarios.destroy", appctx.Wrap(authController.Destroy), self)

	gql := graphql.Handler(schema)
	api.Get("/graphql", "graphql.query", gql)
	api.Post("/graphql", "graphql.execute", gql)

	api.Get("/ws/cambios", "ws.cambios", a.Hub.ServeHTTP)
	api.Get("/sse/cambios", "sse.cambios", a.Feed.ServeHTTP)

	return nil
}

// mount registers the five CRUD routes of rc. A non-nil store replaces the
// controller's own create handler.
func mount(g *router.Group, rc crud, store appctx.HandlerFunc) {
	name := rc.Resource()
	if store == nil {
		store = rc.Store
	}

	g.Get("/"+name, name+".index", appctx.Wrap(rc.Index))
	g.Post("/"+name, name+".store", appctx.Wrap(store))
	g.Get("/"+name+"/{id}", name+".show", appctx.Wrap(rc.Show))
	g.Put("/"+name+"/{id}", name+".update", appctx.Wrap(rc.Update))
	g.Delete("/"+name+"/{id}", name+".destroy", appctx.Wrap(rc.Destroy))
}
