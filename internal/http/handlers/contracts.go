package handlers

import (
	"context"

	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/service/delivery"
	"service-fulfillment/internal/service/payment"
	"service-fulfillment/internal/service/refund"
)

type deliveryUsecase interface {
	Assign(ctx context.Context, req delivery.AssignRequest) (domain.Delivery, error)
	AdvanceStatus(ctx context.Context, orderID int64, next domain.DeliveryStatus) (domain.Delivery, error)
	Get(ctx context.Context, orderID int64) (domain.Delivery, error)
	List(ctx context.Context) ([]domain.Delivery, error)
}

// NewDeliveryUsecase wires a delivery.Service into a deliveryUsecase.
func NewDeliveryUsecase(svc *delivery.Service) deliveryUsecase {
	return svc
}

type paymentUsecase interface {
	ProcessPayment(ctx context.Context, req payment.Request) (domain.Payment, error)
	GetPayment(ctx context.Context, orderID int64) (domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
}

// NewPaymentUsecase wires a payment.Ledger into a paymentUsecase.
func NewPaymentUsecase(l *payment.Ledger) paymentUsecase {
	return l
}

type refundUsecase interface {
	Refund(ctx context.Context, orderID int64, reason string) (domain.Refund, error)
}

// NewRefundUsecase wires a refund.Processor into a refundUsecase.
func NewRefundUsecase(p *refund.Processor) refundUsecase {
	return p
}
