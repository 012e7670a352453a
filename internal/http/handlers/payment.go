package handlers

import (
	"net/http"
	"strings"

	"service-fulfillment/internal/domain"
	"service-fulfillment/internal/logx"
	"service-fulfillment/internal/metrics"
	"service-fulfillment/internal/service/payment"
)

// PaymentHandler handles payments and refunds.
type PaymentHandler struct {
	payments paymentUsecase
	refunds  refundUsecase
	logger   logx.Logger
	metrics  *metrics.Fulfillment
}

// NewPaymentHandler creates a new PaymentHandler. m may be nil.
func NewPaymentHandler(logger logx.Logger, p paymentUsecase, rf refundUsecase, m *metrics.Fulfillment) *PaymentHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &PaymentHandler{payments: p, refunds: rf, logger: logger, metrics: m}
}

// Process handles POST /payments.
// A declined charge is still 201: the attempt is recorded with status FAILED.
// @Summary Charge an order
// @Tags payments
// @Accept json
// @Produce json
// @Param request body processPaymentRequest true "Payment payload"
// @Success 201 {object} paymentResponse
// @Failure 400 {object} ErrorResponse "invalid amount or payment method"
// @Failure 502 {object} ErrorResponse "payment gateway unavailable"
// @Router /payments [post]
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.payments.ProcessPayment(r.Context(), payment.Request{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Method:  domain.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
	})
	if p.ID > 0 && h.metrics != nil {
		h.metrics.PaymentsProcessed.WithLabelValues(string(p.Method), string(p.Status)).Inc()
	}
	if err != nil {
		writeServiceError(h.logger, w, r, err, "Payment not found for order")
		return
	}

	h.logger.Info("payment processed",
		logx.OrderID(p.OrderID),
		logx.String("transaction_id", p.TransactionID),
		logx.String("status", string(p.Status)),
	)
	writeJSON(h.logger, w, r, http.StatusCreated, paymentToResponse(p))
}

// Get handles GET /payments/{orderId}.
// @Summary Get the latest payment attempt of an order
// @Tags payments
// @Produce json
// @Param orderId path int true "Order ID"
// @Success 200 {object} paymentResponse
// @Failure 400 {object} ErrorResponse "invalid id"
// @Failure 404 {object} ErrorResponse "payment not found"
// @Router /payments/{orderId} [get]
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "orderId")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.payments.GetPayment(r.Context(), orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err, "Payment not found for order")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, paymentToResponse(p))
}

// List handles GET /payments.
// @Summary List every payment attempt
// @Tags payments
// @Produce json
// @Success 200 {array} paymentResponse
// @Router /payments [get]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	ps, err := h.payments.List(r.Context())
	if err != nil {
		writeServiceError(h.logger, w, r, err, "Payment not found for order")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, paymentsToResponse(ps))
}

// Refund handles POST /payments/{orderId}/refund.
// @Summary Refund the successful payment of an order
// @Tags payments
// @Accept json
// @Produce json
// @Param orderId path int true "Order ID"
// @Param request body refundRequest true "Refund payload"
// @Success 200 {object} refundResponse
// @Failure 404 {object} ErrorResponse "payment not found"
// @Failure 409 {object} ErrorResponse "payment already refunded"
// @Router /payments/{orderId}/refund [post]
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "orderId")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req refundRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	rf, err := h.refunds.Refund(r.Context(), orderID, strings.TrimSpace(req.Reason))
	if err != nil {
		writeServiceError(h.logger, w, r, err, "Payment not found")
		return
	}

	if h.metrics != nil {
		h.metrics.RefundsIssued.Inc()
	}
	h.logger.Info("refund issued",
		logx.OrderID(rf.OrderID),
		logx.String("refund_id", rf.RefundID),
	)
	writeJSON(h.logger, w, r, http.StatusOK, refundToResponse(rf))
}
