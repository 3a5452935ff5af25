package shop

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/session"
	"MiniShop/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry
	Sessions *session.Manager

	MetricsEnabled bool
	MetricsToken   string

	// RateLimitPerMin caps cart mutations per client IP; 0 disables it.
	RateLimitPerMin int
}

const limitWindow = 60 * time.Second

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()
	kit.UseDefaults(r, deps.Log)
	kit.Instrument(r, deps.Registry, deps.Service, deps.MetricsEnabled, deps.MetricsToken)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)

	limiter := kit.NewIPRateLimiter(deps.RateLimitPerMin, limitWindow)

	r.Route("/cart", func(cr chi.Router) {
		cr.Use(deps.Sessions.Middleware)

		cr.Get("/", s.detail)
		cr.Get("/summary", s.summary)

		cr.Group(func(mr chi.Router) {
			mr.Use(limiter.Middleware)
			mr.Post("/items/{id}", s.add)
			mr.Delete("/items/{id}", s.remove)
			mr.Delete("/", s.clear)
		})
	})

	return r
}
