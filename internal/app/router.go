package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlas-ims/atlas-ims/internal/auth"
	"github.com/atlas-ims/atlas-ims/internal/ledger"
	"github.com/atlas-ims/atlas-ims/internal/masterdata/categories"
	"github.com/atlas-ims/atlas-ims/internal/masterdata/products"
	"github.com/atlas-ims/atlas-ims/internal/masterdata/suppliers"
	"github.com/atlas-ims/atlas-ims/internal/observability"
	"github.com/atlas-ims/atlas-ims/internal/orders"
	"github.com/atlas-ims/atlas-ims/internal/users"
	"github.com/atlas-ims/atlas-ims/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	TokenIssuer      *auth.TokenIssuer
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	ProductsHandler  *products.Handler
	CategoryHandler  *categories.Handler
	SupplierHandler  *suppliers.Handler
	MovementsHandler *ledger.Handler
	OrdersHandler    *orders.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Atlas defaults. Everything under
// /api requires a bearer token; signup and login are the only public routes
// besides health and metrics.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticator(params.TokenIssuer))
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/categories", params.CategoryHandler.MountRoutes)
		r.Route("/suppliers", params.SupplierHandler.MountRoutes)
		r.Route("/stock-movements", params.MovementsHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				params.JobsHandler.MountRoutes(r)
			})
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
