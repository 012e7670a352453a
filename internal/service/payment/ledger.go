package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/gateway/payments"
	"service-fulfillment/internal/idgen"
)

// Request carries the input of ProcessPayment.
type Request struct {
	OrderID int64
	Amount  decimal.Decimal
	Method  domain.PaymentMethod
}

// Ledger settles payments through the gateway and records every attempt.
//
// Each ProcessPayment call inserts exactly one record and that record is
// always terminal (SUCCESS or FAILED). Repeated calls for the same order are
// not deduplicated.
type Ledger struct {
	store            paymentStore
	gateway          gateway
	newTxnID         idgen.Generator
	operationTimeout time.Duration
	now              func() time.Time
}

// NewLedger creates a Ledger. A non-positive timeout falls back to 3s.
func NewLedger(store paymentStore, gw gateway, timeout time.Duration) *Ledger {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Ledger{
		store:            store,
		gateway:          gw,
		newTxnID:         idgen.Transaction,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// ProcessPayment charges the order and returns the recorded payment.
//
// A declined charge is not an error: the FAILED payment is returned. A gateway
// error records a FAILED payment and returns apperr.ErrGatewayUnavailable.
func (l *Ledger) ProcessPayment(ctx context.Context, req Request) (domain.Payment, error) {
	if err := validate(req); err != nil {
		return domain.Payment{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.operationTimeout)
	defer cancel()

	var (
		result domain.Payment
		gwErr  error
	)
	err := l.store.WithKey(ctx, req.OrderID, func() error {
		p := domain.Payment{
			OrderID:       req.OrderID,
			Amount:        req.Amount,
			Method:        req.Method,
			Status:        domain.PaymentPending,
			TransactionID: l.newTxnID(),
			CreatedAt:     l.now(),
		}
		if err := move(&p, domain.PaymentProcessing); err != nil {
			return err
		}

		res, err := l.gateway.Charge(ctx, payments.ChargeRequest{
			OrderID:       p.OrderID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			Method:        p.Method,
		})
		switch {
		case err != nil:
			gwErr = err
			p.FailureReason = err.Error()
			err = move(&p, domain.PaymentFailed)
		case res.Approved:
			err = move(&p, domain.PaymentSuccess)
		default:
			p.FailureReason = res.Reason
			if p.FailureReason == "" {
				p.FailureReason = "declined"
			}
			err = move(&p, domain.PaymentFailed)
		}
		if err != nil {
			return err
		}

		p.ID = l.store.Insert(p)
		result = p
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	if gwErr != nil {
		return result, fmt.Errorf("charge %s: %v: %w", result.TransactionID, gwErr, apperr.ErrGatewayUnavailable)
	}
	return result, nil
}

// GetPayment returns the most recent payment attempt of the order.
func (l *Ledger) GetPayment(_ context.Context, orderID int64) (domain.Payment, error) {
	if orderID <= 0 {
		return domain.Payment{}, apperr.ErrInvalid
	}
	p, ok := l.store.FindLast(orderID, nil)
	if !ok {
		return domain.Payment{}, apperr.ErrNotFound
	}
	return p, nil
}

// List returns every payment attempt in creation order.
func (l *Ledger) List(_ context.Context) ([]domain.Payment, error) {
	return l.store.List(), nil
}

func validate(req Request) error {
	if req.OrderID <= 0 {
		return apperr.ErrInvalid
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("amount %s: %w", req.Amount, apperr.ErrInvalidAmount)
	}
	if !req.Method.Valid() {
		return fmt.Errorf("method %q: %w", req.Method, apperr.ErrInvalidPaymentMethod)
	}
	return nil
}

func move(p *domain.Payment, next domain.PaymentStatus) error {
	if !p.Status.CanTransition(next) {
		return fmt.Errorf("payment %s -> %s: %w", p.Status, next, apperr.ErrInvalidTransition)
	}
	p.Status = next
	return nil
}
