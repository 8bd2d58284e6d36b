package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoangdh1/eCommerce/api/controllers"
	"github.com/hoangdh1/eCommerce/api/middleware"
	"github.com/hoangdh1/eCommerce/internal/cart"
	"github.com/hoangdh1/eCommerce/internal/customers"
	"github.com/hoangdh1/eCommerce/internal/orders"
	product "github.com/hoangdh1/eCommerce/internal/products"
	"github.com/hoangdh1/eCommerce/internal/promotions"
	"github.com/hoangdh1/eCommerce/internal/shippers"
	"github.com/hoangdh1/eCommerce/pkg/config"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	"github.com/hoangdh1/eCommerce/pkg/logger"
)

// RouterParams carries everything the HTTP surface dispatches to.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Redis      controllers.Pinger
	Gatherer   prometheus.Gatherer
	Products   product.Service
	Promotions promotions.Service
	Customers  customers.Service
	Shippers   shippers.Service
	Cart       cart.Service
	Orders     orders.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    p.Redis,
		}))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleCustomer))
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(p.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer, enums.ActorRoleAdmin)).
				Post("/", controllers.CreateOrder(p.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer)).
				Get("/", controllers.ListMyOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleCustomer, enums.ActorRoleAdmin))
				r.Post("/{orderId}/items", controllers.OrderAddItem(p.Orders, logg))
				r.Patch("/{orderId}/items/{itemId}", controllers.OrderUpdateItem(p.Orders, logg))
				r.Delete("/{orderId}/items/{itemId}", controllers.OrderRemoveItem(p.Orders, logg))
			})
		})

		r.Route("/shippers/{shipperId}/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleShipper, enums.ActorRoleAdmin))
			r.Get("/", controllers.ListShipperOrders(p.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleShipper)).
				Post("/{orderId}/status", controllers.ShipperUpdateOrderStatus(p.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(p.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(p.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(p.Products, logg))
			r.Post("/{productId}/restock", controllers.AdminRestockProduct(p.Products, logg))
			r.Post("/{productId}/sale", controllers.AdminScheduleSale(p.Promotions, logg))
			r.Delete("/{productId}/sale", controllers.AdminCancelSale(p.Promotions, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCustomer(p.Customers, logg))
			r.Get("/", controllers.AdminListCustomers(p.Customers, logg))
			r.Get("/{customerId}", controllers.AdminGetCustomer(p.Customers, logg))
		})

		r.Route("/shippers", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateShipper(p.Shippers, logg))
			r.Get("/", controllers.AdminListShippers(p.Shippers, logg))
			r.Get("/{shipperId}", controllers.AdminGetShipper(p.Shippers, logg))
			r.Put("/{shipperId}/status", controllers.AdminSetShipperStatus(p.Shippers, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/export", controllers.AdminExportOrder(p.Orders, logg))
			r.Post("/{orderId}/assign", controllers.AdminAssignShipper(p.Orders, logg))
		})
	})

	return r
}
