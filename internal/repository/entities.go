package repository

import "service-fulfillment/internal/domain"

// DeliveryStore holds deliveries keyed by order id.
type DeliveryStore = Store[int64, domain.Delivery]

// PaymentStore holds payments keyed by order id.
type PaymentStore = Store[int64, domain.Payment]

// NewDeliveryStore creates an empty DeliveryStore.
func NewDeliveryStore() *DeliveryStore {
	return New(
		func(d domain.Delivery) int64 { return d.OrderID },
		func(d *domain.Delivery, id int64) { d.ID = id },
	)
}

// NewPaymentStore creates an empty PaymentStore.
func NewPaymentStore() *PaymentStore {
	return New(
		func(p domain.Payment) int64 { return p.OrderID },
		func(p *domain.Payment, id int64) { p.ID = id },
	)
}
