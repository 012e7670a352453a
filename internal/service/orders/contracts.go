//go:generate mockgen -source=contracts.go -destination=orders_mocks_test.go -package=orders_test

package orders

import (
	"context"

	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/service/delivery"
)

// DeliveryPort is the part of the delivery lifecycle driven by order events.
type DeliveryPort interface {
	Assign(ctx context.Context, req delivery.AssignRequest) (domain.Delivery, error)
	AdvanceStatus(ctx context.Context, orderID int64, next domain.DeliveryStatus) (domain.Delivery, error)
}
