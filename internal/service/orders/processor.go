package orders

import (
	"context"
	"errors"
	"strings"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/service/delivery"
)

type action func(context.Context, Event) error

// Processor turns order events into delivery lifecycle calls.
// Redelivered events are expected, so outcomes that mean "already done" are swallowed.
type Processor struct {
	delivery DeliveryPort
	byStatus map[string]action
}

// NewProcessor creates a Processor over d.
func NewProcessor(d DeliveryPort) *Processor {
	p := &Processor{delivery: d}
	p.byStatus = map[string]action{
		"created":  p.onCreated,
		"canceled": p.onCanceled,
		"deleted":  p.onCanceled,
	}
	return p
}

// NewDeliveryPort exposes a delivery.Service as a DeliveryPort.
func NewDeliveryPort(svc *delivery.Service) DeliveryPort { return svc }

// Handle processes a single event. Unknown statuses are ignored.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.byStatus[strings.ToLower(strings.TrimSpace(e.Status))]
	if !ok {
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onCreated(ctx context.Context, e Event) error {
	_, err := p.delivery.Assign(ctx, delivery.AssignRequest{
		OrderID:         e.OrderID,
		PickupAddress:   e.PickupAddress,
		DeliveryAddress: e.DeliveryAddress,
	})
	if errors.Is(err, apperr.ErrDuplicateAssignment) {
		return nil
	}
	return err
}

func (p *Processor) onCanceled(ctx context.Context, e Event) error {
	_, err := p.delivery.AdvanceStatus(ctx, e.OrderID, domain.DeliveryCancelled)
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidTransition) {
		return nil
	}
	return err
}
