package handlers

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"service-fulfillment/internal/domain"
)

type assignDeliveryRequest struct {
	OrderID         int64  `json:"orderId"`
	DeliveryAddress string `json:"deliveryAddress"`
	PickupAddress   string `json:"pickupAddress,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateStatusResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type deliveryResponse struct {
	ID              int64     `json:"id"`
	OrderID         int64     `json:"orderId"`
	PartnerID       int64     `json:"partnerId"`
	PartnerName     string    `json:"partnerName"`
	Status          string    `json:"status"`
	PickupAddress   string    `json:"pickupAddress"`
	DeliveryAddress string    `json:"deliveryAddress"`
	EstimatedTime   string    `json:"estimatedTime"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type processPaymentRequest struct {
	OrderID       int64           `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type paymentResponse struct {
	ID            int64       `json:"id"`
	OrderID       int64       `json:"orderId"`
	Amount        json.Number `json:"amount"`
	PaymentMethod string      `json:"paymentMethod"`
	Status        string      `json:"status"`
	TransactionID string      `json:"transactionId"`
	FailureReason string      `json:"failureReason,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

type refundResponse struct {
	Message       string      `json:"message"`
	OrderID       int64       `json:"orderId"`
	RefundID      string      `json:"refundId"`
	TransactionID string      `json:"transactionId"`
	Amount        json.Number `json:"amount"`
	Reason        string      `json:"reason"`
}

// money renders an amount as a bare JSON number without float rounding.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func deliveryToResponse(d domain.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:              d.ID,
		OrderID:         d.OrderID,
		PartnerID:       d.PartnerID,
		PartnerName:     d.PartnerName,
		Status:          string(d.Status),
		PickupAddress:   d.PickupAddress,
		DeliveryAddress: d.DeliveryAddress,
		EstimatedTime:   d.EstimatedTime,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func deliveriesToResponse(ds []domain.Delivery) []deliveryResponse {
	out := make([]deliveryResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, deliveryToResponse(d))
	}
	return out
}

func paymentToResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        money(p.Amount),
		PaymentMethod: string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
	}
}

func paymentsToResponse(ps []domain.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, paymentToResponse(p))
	}
	return out
}

func refundToResponse(r domain.Refund) refundResponse {
	return refundResponse{
		Message:       "Refund processed successfully",
		OrderID:       r.OrderID,
		RefundID:      r.RefundID,
		TransactionID: r.TransactionID,
		Amount:        money(r.Amount),
		Reason:        r.Reason,
	}
}
