package orders

import "time"

// Event is a single order lifecycle event published by the order service.
type Event struct {
	OrderID         int64
	Status          string
	PickupAddress   string
	DeliveryAddress string
	CreatedAt       time.Time
}
