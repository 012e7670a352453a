package payment

import (
	"context"

	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/gateway/payments"
)

type paymentStore interface {
	Insert(p domain.Payment) int64
	FindLast(orderID int64, match func(domain.Payment) bool) (domain.Payment, bool)
	List() []domain.Payment
	WithKey(ctx context.Context, orderID int64, fn func() error) error
}

type gateway interface {
	Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error)
}
