//go:generate mockgen -source=gateway.go -destination=mock_client_test.go -package=payments_test

package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"service-fulfillment/internal/domain"
)

// ErrUnavailable marks transient gateway failures that may be retried.
var ErrUnavailable = errors.New("payment gateway temporarily unavailable")

// ChargeRequest asks the gateway to settle a payment.
type ChargeRequest struct {
	OrderID       int64
	TransactionID string
	Amount        decimal.Decimal
	Method        domain.PaymentMethod
}

// ChargeResult is the gateway decision for a charge.
type ChargeResult struct {
	Approved bool
	Reason   string
}

// RefundRequest asks the gateway to return a settled payment.
type RefundRequest struct {
	OrderID       int64
	TransactionID string
	RefundID      string
	Amount        decimal.Decimal
}

// Client is a payment gateway.
type Client interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) error
}

// StubGateway settles everything in process: charges are approved, refunds succeed.
type StubGateway struct{}

// NewStubGateway creates a StubGateway.
func NewStubGateway() StubGateway { return StubGateway{} }

// Charge approves the charge.
func (StubGateway) Charge(ctx context.Context, _ ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	return ChargeResult{Approved: true}, nil
}

// Refund accepts the refund.
func (StubGateway) Refund(ctx context.Context, _ RefundRequest) error {
	return ctx.Err()
}

var _ Client = StubGateway{}
