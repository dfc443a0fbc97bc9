package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP routing tree for the Zabbix HTTP agent items.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON(api))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(RequestLogger(api))

	r.Get("/healthz", api.health)
	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Get("/discovery", api.discovery)
		apiRouter.Get("/summary", api.summary)
		apiRouter.Get("/stats/{mac}", api.stats)
		apiRouter.Get("/ssid/{name}", api.ssid)
	})
	if api.metrics != nil {
		r.Method(http.MethodGet, "/metrics", api.metrics)
	}
	return r
}
