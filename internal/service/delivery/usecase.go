package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/service/matching"
)

// DefaultPickupAddress is used when the caller does not name a pickup point.
const DefaultPickupAddress = "Restaurant Location"

// AssignRequest carries the input of Assign.
type AssignRequest struct {
	OrderID         int64
	PickupAddress   string
	DeliveryAddress string
}

// Service - delivery lifecycle: assignment and status transitions.
type Service struct {
	store            deliveryStore
	matcher          matching.Matcher
	operationTimeout time.Duration
	now              func() time.Time
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// NewDeliveryService - creates a new delivery Service.
func NewDeliveryService(store deliveryStore, m matching.Matcher, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		store:            store,
		matcher:          m,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func isActive(d domain.Delivery) bool { return d.Active() }

// Assign creates the delivery for an order, unless the order already has an active one.
func (s *Service) Assign(ctx context.Context, req AssignRequest) (domain.Delivery, error) {
	req, err := validateAssign(req)
	if err != nil {
		return domain.Delivery{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result domain.Delivery
	err = s.store.WithKey(ctx, req.OrderID, func() error {
		if _, ok := s.store.FindLast(req.OrderID, isActive); ok {
			return fmt.Errorf("order %d: %w", req.OrderID, apperr.ErrDuplicateAssignment)
		}

		a, err := s.matcher.Match(ctx, matching.Request{
			OrderID:         req.OrderID,
			PickupAddress:   req.PickupAddress,
			DeliveryAddress: req.DeliveryAddress,
		})
		if err != nil {
			return err
		}

		now := s.now()
		d := domain.Delivery{
			OrderID:         req.OrderID,
			PartnerID:       a.PartnerID,
			PartnerName:     a.PartnerName,
			Status:          domain.DeliveryAssigned,
			PickupAddress:   req.PickupAddress,
			DeliveryAddress: req.DeliveryAddress,
			EstimatedTime:   a.EstimatedTime,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		d.ID = s.store.Insert(d)
		result = d
		return nil
	})
	if err != nil {
		return domain.Delivery{}, err
	}
	return result, nil
}

// AdvanceStatus moves the order's delivery to next if the lifecycle allows it.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, next domain.DeliveryStatus) (domain.Delivery, error) {
	if orderID <= 0 {
		return domain.Delivery{}, apperr.ErrInvalid
	}
	if !next.Valid() {
		return domain.Delivery{}, fmt.Errorf("unknown status %q: %w", next, apperr.ErrInvalidTransition)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result domain.Delivery
	err := s.store.WithKey(ctx, orderID, func() error {
		cur, ok := s.store.FindLast(orderID, isActive)
		if !ok {
			// no active delivery: a terminal one turns the request into a bad transition
			cur, ok = s.store.FindLast(orderID, nil)
			if !ok {
				return fmt.Errorf("delivery for order %d: %w", orderID, apperr.ErrNotFound)
			}
		}

		updated, err := s.store.Update(cur.ID, func(d *domain.Delivery) error {
			if !d.Status.CanTransition(next) {
				return fmt.Errorf("%s -> %s: %w", d.Status, next, apperr.ErrInvalidTransition)
			}
			d.Status = next
			d.UpdatedAt = s.now()
			return nil
		})
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return domain.Delivery{}, err
	}

	if result.Status.Terminal() {
		if r, ok := s.matcher.(matching.Releaser); ok {
			r.Release(result.PartnerID)
		}
	}
	return result, nil
}

// Get returns the most recent delivery of the order, active or not.
func (s *Service) Get(_ context.Context, orderID int64) (domain.Delivery, error) {
	if orderID <= 0 {
		return domain.Delivery{}, apperr.ErrInvalid
	}
	d, ok := s.store.FindLast(orderID, nil)
	if !ok {
		return domain.Delivery{}, apperr.ErrNotFound
	}
	return d, nil
}

// List returns all deliveries in creation order.
func (s *Service) List(_ context.Context) ([]domain.Delivery, error) {
	return s.store.List(), nil
}

func validateAssign(req AssignRequest) (AssignRequest, error) {
	if req.OrderID <= 0 {
		return req, apperr.ErrInvalid
	}
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	if req.DeliveryAddress == "" {
		return req, apperr.ErrInvalid
	}
	req.PickupAddress = strings.TrimSpace(req.PickupAddress)
	if req.PickupAddress == "" {
		req.PickupAddress = DefaultPickupAddress
	}
	return req, nil
}
