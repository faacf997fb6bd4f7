package domain

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidSnapshot = errors.New("invalid checkout snapshot")

// SnapshotLine freezes one cart line at checkout time: the quantity and the
// unit price the buyer saw. Order materialization uses these values verbatim,
// never the live catalog.
type SnapshotLine struct {
	ProductID int64   `json:"product_id"`
	Quantity  int32   `json:"quantity"`
	Price     float64 `json:"price"`
}

// CheckoutSnapshot is the full cart state captured when a checkout session is
// created. It travels through the payment gateway's metadata channel, so the
// completion side has a self-contained record of what to materialize.
type CheckoutSnapshot struct {
	UserID string         `json:"user_id"`
	Lines  []SnapshotLine `json:"lines"`
}

// Total sums price x quantity over the snapshot, rounded to 2 decimal places.
func (s *CheckoutSnapshot) Total() float64 {
	total := decimal.Zero
	for _, line := range s.Lines {
		sub := decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt32(line.Quantity))
		total = total.Add(sub)
	}
	return total.Round(2).InexactFloat64()
}

func (s *CheckoutSnapshot) Encode() (string, error) {
	b, err := json.Marshal(s.Lines)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeSnapshot rebuilds a snapshot from gateway metadata. A missing user id,
// unparseable payload, empty line list, or non-positive quantity all fail with
// ErrInvalidSnapshot: a corrupt event must never half-materialize an order.
func DecodeSnapshot(userID, raw string) (*CheckoutSnapshot, error) {
	if userID == "" || raw == "" {
		return nil, ErrInvalidSnapshot
	}

	var lines []SnapshotLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, ErrInvalidSnapshot
	}
	if len(lines) == 0 {
		return nil, ErrInvalidSnapshot
	}
	for _, line := range lines {
		if line.ProductID <= 0 || line.Quantity <= 0 || line.Price < 0 {
			return nil, ErrInvalidSnapshot
		}
	}

	return &CheckoutSnapshot{UserID: userID, Lines: lines}, nil
}
