package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianops/stockroute-backend/api/controllers"
	"github.com/meridianops/stockroute-backend/api/middleware"
	"github.com/meridianops/stockroute-backend/internal/bulk"
	"github.com/meridianops/stockroute-backend/internal/centralinv"
	"github.com/meridianops/stockroute-backend/internal/routing"
	"github.com/meridianops/stockroute-backend/internal/shopsync"
	"github.com/meridianops/stockroute-backend/pkg/config"
	"github.com/meridianops/stockroute-backend/pkg/db"
	"github.com/meridianops/stockroute-backend/pkg/logger"
	"github.com/meridianops/stockroute-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Items    centralinv.Service
	Routings routing.Service
	Sync     shopsync.Service
	Bulk     bulk.Service
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, readinessDeps(p)))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(p.Items, p.Logger))
			r.Post("/", controllers.CreateItem(p.Items, p.Logger))
			r.Get("/lookup", controllers.LookupItem(p.Items, p.Logger))
			r.Route("/{itemId}", func(r chi.Router) {
				r.Get("/", controllers.GetItem(p.Items, p.Logger))
				r.Post("/adjust", controllers.AdjustItemQuantity(p.Items, p.Logger))
				r.Put("/quantity", controllers.SetItemQuantity(p.Items, p.Logger))
				r.Route("/routings", func(r chi.Router) {
					r.Get("/", controllers.ListRoutings(p.Routings, p.Logger))
					r.Put("/", controllers.AddRouting(p.Routings, p.Logger))
					r.Delete("/{shopId}", controllers.RemoveRouting(p.Routings, p.Logger))
				})
			})
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.TriggerFullSync(p.Sync, p.Logger))
			r.Post("/shops/{shopId}", controllers.TriggerShopSync(p.Sync, p.Logger))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/import", controllers.ImportInventoryCSV(p.Bulk, p.Logger))
			r.Get("/export", controllers.ExportInventoryCSV(p.Bulk, p.Logger))
		})
	})

	return r
}

func readinessDeps(p RouterParams) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["database"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	return deps
}
