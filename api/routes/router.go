package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/arnaszs/servizas/api/controllers"
	"github.com/arnaszs/servizas/api/middleware"
	"github.com/arnaszs/servizas/internal/catalog"
	"github.com/arnaszs/servizas/internal/clients"
	"github.com/arnaszs/servizas/internal/dashboard"
	"github.com/arnaszs/servizas/internal/ledger"
	"github.com/arnaszs/servizas/internal/orders"
	"github.com/arnaszs/servizas/internal/reviews"
	"github.com/arnaszs/servizas/internal/vehicles"
	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/enums"
	"github.com/arnaszs/servizas/pkg/logger"
	"github.com/arnaszs/servizas/pkg/metrics"
	pkgredis "github.com/arnaszs/servizas/pkg/redis"
)

// Dependencies are the services and infrastructure the router serves.
// Idempotency and Metrics may be nil; a nil TracerProvider uses the global
// one.
type Dependencies struct {
	Catalog   catalog.Service
	Clients   clients.Service
	Vehicles  vehicles.Service
	Orders    orders.Service
	Ledger    ledger.Service
	Reviews   reviews.Service
	Dashboard dashboard.Service

	Idempotency    pkgredis.IdempotencyStore
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	ReadyChecks    []controllers.ReadyCheck
	TracerProvider trace.TracerProvider
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Tracing(deps.TracerProvider),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks...))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	staff := middleware.RequireRole(enums.ActorRoleStaff, logg)
	client := middleware.RequireClient(logg)
	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Redis.IdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/services", func(r chi.Router) {
			r.Get("/", controllers.ListServices(deps.Catalog, logg))
			r.With(staff).Post("/", controllers.CreateService(deps.Catalog, logg))
			r.With(staff).Patch("/{serviceId}", controllers.UpdateServicePrice(deps.Catalog, logg))
		})

		r.Route("/car-models", func(r chi.Router) {
			r.Get("/", controllers.ListCarModels(deps.Catalog, logg))
			r.With(staff).Post("/", controllers.CreateCarModel(deps.Catalog, logg))
		})

		r.With(staff).Post("/clients", controllers.CreateClient(deps.Clients, logg))

		r.Route("/vehicles", func(r chi.Router) {
			r.With(staff).Get("/", controllers.ListVehicles(deps.Vehicles, logg))
			r.With(staff).Post("/", controllers.RegisterVehicle(deps.Vehicles, logg))
			r.With(client).Get("/me", controllers.ListMyVehicles(deps.Vehicles, logg))
			r.Get("/{vehicleId}", controllers.GetVehicle(deps.Vehicles, logg))
			r.With(staff).Patch("/{vehicleId}/owner", controllers.AssignVehicleOwner(deps.Vehicles, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(deps.Orders, logg))
			r.With(staff).Get("/", controllers.ListOrders(deps.Orders, logg))
			r.With(client).Get("/me", controllers.ListMyOrders(deps.Orders, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(deps.Orders, logg))
				r.Get("/entries", controllers.ListOrderEntries(deps.Ledger, deps.Orders, logg))
				r.With(staff, idempotent).Post("/entries", controllers.CreateEntry(deps.Ledger, logg))
				r.Get("/reviews", controllers.ListReviews(deps.Reviews, deps.Orders, logg))
				r.With(idempotent).Post("/reviews", controllers.PostReview(deps.Reviews, deps.Orders, logg))
			})
		})

		r.Route("/entries/{entryId}", func(r chi.Router) {
			r.Get("/", controllers.GetEntry(deps.Ledger, deps.Orders, logg))
			r.With(staff).Patch("/", controllers.UpdateEntry(deps.Ledger, logg))
			r.With(staff).Post("/status", controllers.UpdateEntryStatus(deps.Ledger, logg))
		})

		r.With(staff).Get("/dashboard", controllers.Dashboard(deps.Dashboard, logg))
	})

	return r
}
