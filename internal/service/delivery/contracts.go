package delivery

import (
	"context"

	"service-fulfillment/internal/domain"
)

// deliveryStore is the subset of repository.Store used by the lifecycle.
type deliveryStore interface {
	Insert(d domain.Delivery) int64
	FindLast(orderID int64, match func(domain.Delivery) bool) (domain.Delivery, bool)
	List() []domain.Delivery
	Update(id int64, mutate func(*domain.Delivery) error) (domain.Delivery, error)
	WithKey(ctx context.Context, orderID int64, fn func() error) error
}
