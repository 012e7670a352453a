package kafka

import (
	"strings"
	"time"

	"service-fulfillment/internal/service/orders"
)

// EventDTO is the wire form of an order event.
type EventDTO struct {
	OrderID         int64     `json:"order_id"`
	Status          string    `json:"status"`
	PickupAddress   string    `json:"pickup_address,omitempty"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToDomain converts EventDTO to orders.Event
func ToDomain(dto EventDTO) orders.Event {
	return orders.Event{
		OrderID:         dto.OrderID,
		Status:          strings.TrimSpace(dto.Status),
		PickupAddress:   strings.TrimSpace(dto.PickupAddress),
		DeliveryAddress: strings.TrimSpace(dto.DeliveryAddress),
		CreatedAt:       dto.CreatedAt,
	}
}
