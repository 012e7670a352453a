package matching

import (
	"context"

	"service-fulfillment/internal/domain"
)

// Request describes the order a partner is looked up for.
type Request struct {
	OrderID         int64
	PickupAddress   string
	DeliveryAddress string
}

// Matcher selects a delivery partner for an order. Implementations return
// apperr.ErrNoPartnerAvailable when nobody can take the order.
type Matcher interface {
	Match(ctx context.Context, req Request) (domain.Assignment, error)
}

// Releaser is implemented by matchers that track partner load. The delivery
// lifecycle calls Release once a delivery reaches a terminal status.
type Releaser interface {
	Release(partnerID int64)
}

// EstimateFactory turns a partner's transport into an arrival estimate.
type EstimateFactory interface {
	Estimate(transport domain.TransportType) (string, error)
}
