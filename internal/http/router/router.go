package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-fulfillment/internal/http/handlers"
	"service-fulfillment/internal/http/middleware"
	"service-fulfillment/internal/http/middleware/ratelimit"
	"service-fulfillment/internal/logx"
)

const defaultTimeout = 5 * time.Second

// Deps lists what the router mounts. RateLimit, Metrics and Gatherer are optional.
type Deps struct {
	Logger    logx.Logger
	Base      *handlers.Handlers
	Delivery  *handlers.DeliveryHandler
	Payments  *handlers.PaymentHandler
	RateLimit *ratelimit.Middleware
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
	Timeout   time.Duration
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	if d.Timeout <= 0 {
		d.Timeout = defaultTimeout
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observability(d.Logger, d.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(d.Timeout))

	r.Get("/", d.Base.Root)
	r.Get("/ping", d.Base.Ping)
	r.Get("/health", d.Base.Health)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if d.RateLimit != nil {
			r.Use(d.RateLimit.Handler())
		}

		r.Route("/delivery", func(r chi.Router) {
			r.Get("/", d.Delivery.List)
			r.Post("/assign", d.Delivery.Assign)
			r.Get("/{orderId}", d.Delivery.Get)
			r.Put("/{orderId}/status", d.Delivery.UpdateStatus)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", d.Payments.List)
			r.Post("/", d.Payments.Process)
			r.Get("/{orderId}", d.Payments.Get)
			r.Post("/{orderId}/refund", d.Payments.Refund)
		})
	})

	r.NotFound(d.Base.NotFound)
	r.MethodNotAllowed(d.Base.MethodNotAllowed)
	return r
}
