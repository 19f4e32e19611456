package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured   PaymentStatus = "CAPTURED"
)

// PaymentIDPrefix is prepended to every generated payment ID.
const PaymentIDPrefix = "P-"

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusAuthorized, PaymentStatusCaptured:
		return true
	default:
		return false
	}
}

// Payment represents an authorization of funds against a ride.
// Everything except Status is immutable once the payment is stored.
type Payment struct {
	ID        string
	RideID    string
	Amount    decimal.Decimal
	Status    PaymentStatus
	CreatedAt time.Time
}

// IsCaptured reports whether the payment reached its terminal state.
func (p *Payment) IsCaptured() bool {
	return p.Status == PaymentStatusCaptured
}
