// Package refund returns settled payments to the customer.
package refund

import (
	"context"
	"fmt"
	"time"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/gateway/payments"
	"service-fulfillment/internal/idgen"
)

type paymentStore interface {
	FindLast(orderID int64, match func(domain.Payment) bool) (domain.Payment, bool)
	Update(id int64, mutate func(*domain.Payment) error) (domain.Payment, error)
	WithKey(ctx context.Context, orderID int64, fn func() error) error
}

type gateway interface {
	Refund(ctx context.Context, req payments.RefundRequest) error
}

// Processor issues at most one refund per successful payment.
type Processor struct {
	store            paymentStore
	gateway          gateway
	newRefundID      idgen.Generator
	operationTimeout time.Duration
	now              func() time.Time
}

// NewProcessor creates a Processor. A non-positive timeout falls back to 3s.
func NewProcessor(store paymentStore, gw gateway, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Processor{
		store:            store,
		gateway:          gw,
		newRefundID:      idgen.Refund,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func succeeded(p domain.Payment) bool { return p.Status == domain.PaymentSuccess }

func refunded(p domain.Payment) bool { return p.Status == domain.PaymentRefunded }

// Refund refunds the order's successful payment for its full amount.
func (p *Processor) Refund(ctx context.Context, orderID int64, reason string) (domain.Refund, error) {
	if orderID <= 0 {
		return domain.Refund{}, apperr.ErrInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, p.operationTimeout)
	defer cancel()

	var result domain.Refund
	err := p.store.WithKey(ctx, orderID, func() error {
		// an unrefunded SUCCESS wins over an earlier refund of another charge
		paid, ok := p.store.FindLast(orderID, succeeded)
		if !ok {
			if done, ok := p.store.FindLast(orderID, refunded); ok {
				return fmt.Errorf("transaction %s: %w", done.TransactionID, apperr.ErrAlreadyRefunded)
			}
			return fmt.Errorf("successful payment for order %d: %w", orderID, apperr.ErrNotFound)
		}

		r := domain.Refund{
			RefundID:      p.newRefundID(),
			OrderID:       orderID,
			TransactionID: paid.TransactionID,
			Amount:        paid.Amount,
			Reason:        reason,
		}
		if err := p.gateway.Refund(ctx, payments.RefundRequest{
			OrderID:       r.OrderID,
			TransactionID: r.TransactionID,
			RefundID:      r.RefundID,
			Amount:        r.Amount,
		}); err != nil {
			return fmt.Errorf("refund %s: %v: %w", r.RefundID, err, apperr.ErrGatewayUnavailable)
		}

		if _, err := p.store.Update(paid.ID, func(cur *domain.Payment) error {
			if !cur.Status.CanTransition(domain.PaymentRefunded) {
				return fmt.Errorf("payment %s -> %s: %w", cur.Status, domain.PaymentRefunded, apperr.ErrAlreadyRefunded)
			}
			cur.Status = domain.PaymentRefunded
			return nil
		}); err != nil {
			return err
		}

		r.CreatedAt = p.now()
		result = r
		return nil
	})
	if err != nil {
		return domain.Refund{}, err
	}
	return result, nil
}
