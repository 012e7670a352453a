package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"service-fulfillment/internal/config"
	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/gateway/payments"
	"service-fulfillment/internal/http/debugserver"
	"service-fulfillment/internal/http/handlers"
	"service-fulfillment/internal/http/middleware"
	"service-fulfillment/internal/http/middleware/ratelimit"
	"service-fulfillment/internal/http/router"
	"service-fulfillment/internal/logx"
	"service-fulfillment/internal/metrics"
	"service-fulfillment/internal/repository"
	"service-fulfillment/internal/service/delivery"
	"service-fulfillment/internal/service/matching"
	"service-fulfillment/internal/service/orders"
	"service-fulfillment/internal/service/payment"
	"service-fulfillment/internal/service/refund"
	"service-fulfillment/internal/transport/kafka"
)

type consumerFactory func(kafka.Config, kafka.HandleFunc, logx.Logger) (*kafka.Consumer, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	loadConfig  func() (*config.Config, error)
	newConsumer consumerFactory
	logFatalf   func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		loadConfig:  config.Load,
		newConsumer: kafka.NewConsumer,
		logFatalf:   log.Fatalf,
	}
}

// WithConfigLoader replaces config.Load
func (b *ContainerBuilder) WithConfigLoader(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadConfig = fn
	}
	return b
}

// WithConsumerFactory sets the constructor used for the order-event consumer
func (b *ContainerBuilder) WithConsumerFactory(fn consumerFactory) *ContainerBuilder {
	if fn != nil {
		b.newConsumer = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.loadConfig); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerStores(container); err != nil {
		return nil, fmt.Errorf("stores: %w", err)
	}
	if err := registerDomainServices(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	if err := registerWorker(container, b.newConsumer); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, loadConfig func() (*config.Config, error)) error {
	return provideAll(container,
		func() context.Context { return ctx },
		loadConfig,
		NewLogger,
		newRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		provideMetrics,
	)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter `name:"rate_limit_exceeded_total"`
	GatewayRetriesTotal    prometheus.Counter `name:"gateway_retries_total"`
}

func provideMetrics(reg prometheus.Registerer) (metricsOut, error) {
	rl, err := registerCounter(reg, metrics.NewRateLimitExceededTotal())
	if err != nil {
		return metricsOut{}, fmt.Errorf("register rate_limit_exceeded_total: %w", err)
	}
	gr, err := registerCounter(reg, metrics.NewGatewayRetriesTotal())
	if err != nil {
		return metricsOut{}, fmt.Errorf("register gateway_retries_total: %w", err)
	}
	return metricsOut{RateLimitExceededTotal: rl, GatewayRetriesTotal: gr}, nil
}

// registerCounter returns the already registered counter when c collides with it.
func registerCounter(reg prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
			return existing, nil
		}
	}
	return nil, err
}

func registerStores(container *dig.Container) error {
	return provideAll(container,
		repository.NewDeliveryStore,
		repository.NewPaymentStore,
		provideFulfillmentMetrics,
	)
}

func provideFulfillmentMetrics(
	reg prometheus.Registerer,
	ds *repository.DeliveryStore,
	ps *repository.PaymentStore,
) (*metrics.Fulfillment, error) {
	f := metrics.NewFulfillment()
	gauges := metrics.NewStoreGauges(
		func() int { return ds.Count(func(d domain.Delivery) bool { return d.Active() }) },
		func() int { return ps.Count(nil) },
	)
	if err := metrics.Register(reg, append(f.Collectors(), gauges...)...); err != nil {
		return nil, err
	}
	return f, nil
}

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		newMatcher,
		func(store *repository.DeliveryStore, m matching.Matcher, cfg *config.Config) *delivery.Service {
			return delivery.NewDeliveryService(store, m, cfg.OperationTimeout)
		},
		newPaymentGateway,
		func(store *repository.PaymentStore, gw payments.Client, cfg *config.Config) *payment.Ledger {
			return payment.NewLedger(store, gw, cfg.OperationTimeout)
		},
		func(store *repository.PaymentStore, gw payments.Client, cfg *config.Config) *refund.Processor {
			return refund.NewProcessor(store, gw, cfg.OperationTimeout)
		},
	)
}

func newMatcher(cfg *config.Config) matching.Matcher {
	m := cfg.Matcher
	if m.Mode == config.MatcherPool {
		return matching.NewPoolMatcher(m.Pool, matching.NewEstimateFactory())
	}
	return matching.NewStaticMatcher(domain.Assignment{
		PartnerID:     m.PartnerID,
		PartnerName:   m.PartnerName,
		EstimatedTime: m.ETA,
	})
}

type gatewayIn struct {
	dig.In

	Config  *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

func newPaymentGateway(in gatewayIn) payments.Client {
	return payments.NewRetryingGateway(payments.NewStubGateway(), in.Logger, in.Retries, payments.RetryConfig{
		MaxAttempts: in.Config.Gateway.MaxAttempts,
		BaseDelay:   in.Config.Gateway.BaseDelay,
		MaxDelay:    in.Config.Gateway.MaxDelay,
	})
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewDeliveryUsecase,
		handlers.NewDeliveryHandler,
		handlers.NewPaymentUsecase,
		handlers.NewRefundUsecase,
		handlers.NewPaymentHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		func(reg prometheus.Registerer) (*middleware.HTTPMetrics, error) {
			return middleware.NewHTTPMetrics(reg)
		},
		newRouter,
		serverProvider,
		provideDebugServer,
	)
}

type routerIn struct {
	dig.In

	Config    *config.Config
	Logger    logx.Logger
	Base      *handlers.Handlers
	Delivery  *handlers.DeliveryHandler
	Payments  *handlers.PaymentHandler
	RateLimit *ratelimit.Middleware
	Metrics   *middleware.HTTPMetrics
	Registry  *prometheus.Registry
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Logger:    in.Logger,
		Base:      in.Base,
		Delivery:  in.Delivery,
		Payments:  in.Payments,
		RateLimit: in.RateLimit,
		Metrics:   in.Metrics,
		Gatherer:  in.Registry,
		Timeout:   in.Config.OperationTimeout + 2*time.Second,
	})
}

type debugServerOut struct {
	dig.Out

	Server *http.Server `name:"debug_server"`
}

func provideDebugServer(cfg *config.Config, reg *prometheus.Registry) debugServerOut {
	if cfg.Debug.Addr == "" {
		return debugServerOut{}
	}
	creds := debugserver.Credentials{User: cfg.Debug.User, Pass: cfg.Debug.Pass}
	return debugServerOut{Server: &http.Server{
		Addr:              cfg.Debug.Addr,
		Handler:           debugserver.Handler(creds, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func registerWorker(container *dig.Container, newConsumer consumerFactory) error {
	consumerProvider := func(cfg *config.Config, p *orders.Processor, logger logx.Logger) (*kafka.Consumer, error) {
		if !cfg.Kafka.Enabled() {
			logger.Info("kafka consumer disabled")
			return nil, nil
		}
		return newConsumer(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topic:   cfg.Kafka.OrdersTopic,
		}, makeOrdersHandler(p), logger)
	}
	return provideAll(container,
		orders.NewDeliveryPort,
		orders.NewProcessor,
		consumerProvider,
	)
}
