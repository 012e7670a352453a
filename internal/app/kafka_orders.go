package app

import (
	"context"
	"errors"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/service/orders"
	"service-fulfillment/internal/transport/kafka"
)

type orderHandler interface {
	Handle(ctx context.Context, e orders.Event) error
}

// makeOrdersHandler adapts the order processor to the consumer. Events the
// lifecycle rejects as invalid are committed; anything else is redelivered.
func makeOrdersHandler(h orderHandler) kafka.HandleFunc {
	return func(ctx context.Context, event orders.Event) error {
		err := h.Handle(ctx, event)
		if errors.Is(err, apperr.ErrInvalid) {
			return kafka.Permanent(err)
		}
		return err
	}
}
