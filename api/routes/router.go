package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopledger-backend/api/controllers"
	"github.com/angelmondragon/shopledger-backend/api/middleware"
	"github.com/angelmondragon/shopledger-backend/internal/expenses"
	"github.com/angelmondragon/shopledger-backend/internal/orders"
	"github.com/angelmondragon/shopledger-backend/internal/payments"
	"github.com/angelmondragon/shopledger-backend/internal/products"
	"github.com/angelmondragon/shopledger-backend/internal/purchases"
	"github.com/angelmondragon/shopledger-backend/pkg/config"
	"github.com/angelmondragon/shopledger-backend/pkg/db"
	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/logger"
	"github.com/angelmondragon/shopledger-backend/pkg/metrics"
	"github.com/angelmondragon/shopledger-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs wired in.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	Products    products.Service
	Orders      orders.Service
	Payments    payments.Service
	Purchases   purchases.Service
	Expenses    expenses.Service
	Idempotency redis.IdempotencyStore
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	managerRoles := []string{
		enums.MemberRoleAdmin.String(),
		enums.MemberRoleManager.String(),
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if deps.Redis != nil {
			writePolicy := middleware.NewWriteRatePolicy(cfg.RateLimit.WriteLimit, cfg.RateLimit.WriteWindow)
			r.Use(middleware.RateLimit(writePolicy, deps.Redis, logg))
		}
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Patch("/{orderId}", controllers.OrderUpdate(deps.Orders, logg))
			r.Delete("/{orderId}", controllers.OrderDelete(deps.Orders, logg))
		})

		r.Route("/debtors", func(r chi.Router) {
			r.Get("/", controllers.DebtorList(deps.Payments, logg))
			r.Post("/{orderId}/payments", controllers.DebtorApplyPayment(deps.Payments, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(deps.Products, logg))
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
			r.With(middleware.RequireRole(logg, managerRoles...)).
				Post("/{productId}/batches", controllers.ProductAddBatch(deps.Products, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			// Role gates repeat inside the service; the middleware keeps
			// unauthorized requests from touching request bodies at all.
			r.With(middleware.RequireRole(logg, managerRoles...)).
				Post("/", controllers.PurchaseCreate(deps.Purchases, logg))
			r.Get("/", controllers.PurchaseList(deps.Purchases, logg))
			r.Get("/{purchaseId}", controllers.PurchaseDetail(deps.Purchases, logg))
			r.With(middleware.RequireRole(logg, managerRoles...)).
				Put("/{purchaseId}", controllers.PurchaseUpdate(deps.Purchases, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleAdmin.String())).
				Delete("/{purchaseId}", controllers.PurchaseDelete(deps.Purchases, logg))
		})

		r.Route("/expenses", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, managerRoles...)).
				Post("/", controllers.ExpenseCreate(deps.Expenses, logg))
			r.Get("/", controllers.ExpenseList(deps.Expenses, logg))
			r.Get("/{expenseId}", controllers.ExpenseDetail(deps.Expenses, logg))
			r.With(middleware.RequireRole(logg, managerRoles...)).
				Put("/{expenseId}", controllers.ExpenseUpdate(deps.Expenses, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleAdmin.String())).
				Delete("/{expenseId}", controllers.ExpenseDelete(deps.Expenses, logg))
		})
	})

	return r
}
