package domain

import "github.com/google/uuid"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is the one-to-one companion of an Order. SessionID is the external
// checkout session identifier and serves as the idempotency key: its unique
// constraint is what makes duplicate completion deliveries safe.
type Payment struct {
	ID         int64         `json:"id"`
	OrderID    uuid.UUID     `json:"order_id"`
	PaymentRef string        `json:"payment_ref,omitempty"`
	SessionID  string        `json:"session_id"`
	Status     PaymentStatus `json:"status"`
	Provider   string        `json:"provider"`
}
