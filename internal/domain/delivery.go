package domain

import "time"

// DeliveryStatus represents a step of the delivery lifecycle.
type DeliveryStatus string

// List of possible delivery statuses
const (
	DeliverySearching DeliveryStatus = "SEARCHING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryOnTheWay  DeliveryStatus = "ON_THE_WAY"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

var allowedDeliveryStatuses = [...]DeliveryStatus{
	DeliverySearching, DeliveryAssigned, DeliveryPickedUp,
	DeliveryOnTheWay, DeliveryDelivered, DeliveryCancelled,
}

// chainPos is the position of every status on the forward chain. CANCELLED is off the chain.
var chainPos = map[DeliveryStatus]int{
	DeliverySearching: 0,
	DeliveryAssigned:  1,
	DeliveryPickedUp:  2,
	DeliveryOnTheWay:  3,
	DeliveryDelivered: 4,
}

// Valid checks if the DeliveryStatus is one of the known statuses.
func (s DeliveryStatus) Valid() bool {
	for _, v := range allowedDeliveryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// CanTransition reports whether the lifecycle allows moving from s to next:
// forward along the chain (steps may be skipped) or to CANCELLED, never out of a terminal status.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	if !s.Valid() || s.Terminal() {
		return false
	}
	if next == DeliveryCancelled {
		return true
	}
	to, ok := chainPos[next]
	return ok && to > chainPos[s]
}

// Delivery - a courier assignment for an order.
type Delivery struct {
	ID              int64
	OrderID         int64
	PartnerID       int64
	PartnerName     string
	Status          DeliveryStatus
	PickupAddress   string
	DeliveryAddress string
	EstimatedTime   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the delivery has not reached a terminal status.
func (d Delivery) Active() bool {
	return !d.Status.Terminal()
}

// Assignment is the matcher's choice of courier for an order.
type Assignment struct {
	PartnerID     int64
	PartnerName   string
	EstimatedTime string
}
