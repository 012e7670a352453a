package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-fulfillment/internal/config"
	"service-fulfillment/internal/http/middleware/ratelimit"
	"service-fulfillment/internal/logx"
)

// newRateLimiter builds the per-client limiter for the business routes.
// A disabled limiter still goes through the middleware so the wiring stays the same.
func newRateLimiter(cfg *config.Config, clock ratelimit.Clock, logger logx.Logger) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		logger.Info("rate limiting disabled")
		return ratelimit.NopLimiter{}
	}
	logger.Debug("rate limiting enabled",
		logx.Any("rps", rl.Rate),
		logx.Int("burst", rl.Burst),
		logx.Duration("ttl", rl.TTL),
		logx.Int("max_buckets", rl.MaxBuckets),
	)
	return ratelimit.NewTokenBucketLimiter(clock, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

type rateLimitIn struct {
	dig.In

	Logger   logx.Logger
	Rejected prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter  ratelimit.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger.With(logx.String("component", "ratelimit")), in.Rejected, in.Limiter)
}
