package payments

import (
	"context"
	"errors"
	"time"

	"service-fulfillment/internal/logx"
)

type counter interface {
	Inc()
}

// RetryConfig describes RetryingGateway behaviour.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingGateway retries refunds that fail with ErrUnavailable.
// Charges are passed through once: without an idempotency key a retried
// charge could settle twice.
type RetryingGateway struct {
	next    Client
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
	wait    func(context.Context, time.Duration) bool
}

// NewRetryingGateway wraps next; it returns nil when next is nil.
func NewRetryingGateway(next Client, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingGateway {
	if next == nil {
		return nil
	}
	if logger == nil {
		logger = logx.Nop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingGateway{next: next, logger: logger, retries: retries, cfg: cfg, wait: sleepWithContext}
}

// Charge forwards the charge without retrying.
func (g *RetryingGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	return g.next.Charge(ctx, req)
}

// Refund forwards the refund, retrying transient failures with capped backoff.
func (g *RetryingGateway) Refund(ctx context.Context, req RefundRequest) error {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		err := g.next.Refund(ctx, req)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !errors.Is(err, ErrUnavailable) {
			break
		}

		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("payment gateway retry",
			logx.String("method", "Refund"),
			logx.OrderID(req.OrderID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !g.wait(ctx, delay) {
			break
		}
	}
	return lastErr
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if max > 0 && (d >= max || d <= 0) {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ Client = (*RetryingGateway)(nil)
