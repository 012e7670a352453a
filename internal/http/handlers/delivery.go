package handlers

import (
	"net/http"
	"strings"

	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/logx"
	"service-fulfillment/internal/metrics"
	"service-fulfillment/internal/service/delivery"
)

const deliveryNotFound = "Delivery not found for order"

// DeliveryHandler handles HTTP requests for delivery resources.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
	metrics *metrics.Fulfillment
}

// NewDeliveryHandler creates a new DeliveryHandler. m may be nil.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase, m *metrics.Fulfillment) *DeliveryHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &DeliveryHandler{usecase: uc, logger: logger, metrics: m}
}

// Get handles GET /delivery/{orderId}.
// @Summary Get the latest delivery of an order
// @Tags deliveries
// @Produce json
// @Param orderId path int true "Order ID"
// @Success 200 {object} deliveryResponse
// @Failure 400 {object} ErrorResponse "invalid id"
// @Failure 404 {object} ErrorResponse "delivery not found"
// @Router /delivery/{orderId} [get]
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "orderId")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.usecase.Get(r.Context(), orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err, deliveryNotFound)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Assign handles POST /delivery/assign.
// @Summary Assign a courier to an order
// @Tags deliveries
// @Accept json
// @Produce json
// @Param request body assignDeliveryRequest true "Assign delivery payload"
// @Success 201 {object} deliveryResponse
// @Failure 400 {object} ErrorResponse "invalid input"
// @Failure 409 {object} ErrorResponse "already assigned or no available couriers"
// @Router /delivery/assign [post]
func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	d, err := h.usecase.Assign(r.Context(), delivery.AssignRequest{
		OrderID:         req.OrderID,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		writeServiceError(h.logger, w, r, err, deliveryNotFound)
		return
	}

	if h.metrics != nil {
		h.metrics.DeliveriesAssigned.Inc()
	}
	h.logger.Info("delivery assigned",
		logx.OrderID(d.OrderID),
		logx.Int64("partner_id", d.PartnerID),
	)
	writeJSON(h.logger, w, r, http.StatusCreated, deliveryToResponse(d))
}

// UpdateStatus handles PUT /delivery/{orderId}/status.
// @Summary Advance the delivery status
// @Tags deliveries
// @Accept json
// @Produce json
// @Param orderId path int true "Order ID"
// @Param request body updateStatusRequest true "New status"
// @Success 200 {object} updateStatusResponse
// @Failure 400 {object} ErrorResponse "invalid status transition"
// @Failure 404 {object} ErrorResponse "delivery not found"
// @Router /delivery/{orderId}/status [put]
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "orderId")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req updateStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	next := domain.DeliveryStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	d, err := h.usecase.AdvanceStatus(r.Context(), orderID, next)
	if err != nil {
		writeServiceError(h.logger, w, r, err, "Delivery not found")
		return
	}

	if h.metrics != nil {
		h.metrics.StatusTransitions.WithLabelValues(string(d.Status)).Inc()
	}
	writeJSON(h.logger, w, r, http.StatusOK, updateStatusResponse{
		Message: "Delivery status updated",
		OrderID: d.OrderID,
		Status:  string(d.Status),
	})
}

// List handles GET /delivery.
// @Summary List every delivery
// @Tags deliveries
// @Produce json
// @Success 200 {array} deliveryResponse
// @Router /delivery [get]
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	ds, err := h.usecase.List(r.Context())
	if err != nil {
		writeServiceError(h.logger, w, r, err, deliveryNotFound)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveriesToResponse(ds))
}
