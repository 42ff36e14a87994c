package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salesdeskhq/salesdesk-backend/api/controllers"
	"github.com/salesdeskhq/salesdesk-backend/api/middleware"
	checkoutsvc "github.com/salesdeskhq/salesdesk-backend/internal/checkout"
	commissionsvc "github.com/salesdeskhq/salesdesk-backend/internal/commission"
	payoutssvc "github.com/salesdeskhq/salesdesk-backend/internal/payouts"
	productssvc "github.com/salesdeskhq/salesdesk-backend/internal/products"
	salessvc "github.com/salesdeskhq/salesdesk-backend/internal/sales"
	walletsvc "github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/config"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db"
	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	pkgredis "github.com/salesdeskhq/salesdesk-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *pkgredis.Client
	Registry   *prometheus.Registry
	Checkout   checkoutsvc.Service
	Sales      salessvc.Service
	Wallets    walletsvc.Service
	Commission commissionsvc.Service
	Payouts    payoutssvc.Service
	Products   productssvc.Service
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Get("/wallet", controllers.GetOwnWallet(deps.Wallets, logg))
		r.Get("/sales", controllers.ListOwnSales(deps.Sales, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/commission-tiers", func(r chi.Router) {
			r.Get("/", controllers.ListCommissionTiers(deps.Commission, logg))
			r.Post("/", controllers.CreateCommissionTier(deps.Commission, logg))
			r.Patch("/{id}", controllers.UpdateCommissionTier(deps.Commission, logg))
			r.Post("/{id}/toggle", controllers.ToggleCommissionTier(deps.Commission, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.ListPayouts(deps.Payouts, logg))
			r.Post("/", controllers.CreatePayout(deps.Payouts, logg))
		})

		r.Get("/wallets/{userId}", controllers.GetWalletByUser(deps.Wallets, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Patch("/{id}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/{id}", controllers.DeactivateProduct(deps.Products, logg))
			r.Put("/{id}/inventory", controllers.SetProductInventory(deps.Products, logg))
		})
	})

	return r
}
