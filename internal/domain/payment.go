package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// PaymentMethod represents how the customer pays.
	PaymentMethod string
	// PaymentStatus represents the settlement state of a payment.
	PaymentStatus string
)

// List of supported payment methods
const (
	MethodCard   PaymentMethod = "CARD"
	MethodUPI    PaymentMethod = "UPI"
	MethodWallet PaymentMethod = "WALLET"
	MethodCOD    PaymentMethod = "COD"
)

// List of possible payment statuses
const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentSuccess    PaymentStatus = "SUCCESS"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

var allowedMethods = [...]PaymentMethod{MethodCard, MethodUPI, MethodWallet, MethodCOD}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing},
	PaymentProcessing: {PaymentSuccess, PaymentFailed},
	PaymentSuccess:    {PaymentRefunded},
}

// Valid checks if the PaymentMethod is supported
func (m PaymentMethod) Valid() bool {
	for _, v := range allowedMethods {
		if m == v {
			return true
		}
	}
	return false
}

// CanTransition reports whether a payment may move from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, v := range paymentTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Payment - a settlement attempt for an order.
type Payment struct {
	ID            int64
	OrderID       int64
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	FailureReason string
	CreatedAt     time.Time
}

// Refund - a refund issued against a successful payment.
type Refund struct {
	RefundID      string
	OrderID       int64
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
	CreatedAt     time.Time
}
