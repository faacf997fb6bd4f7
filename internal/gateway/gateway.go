package gateway

import (
	"context"
	"errors"
)

// LineItem is one priced row shown on the hosted payment page. UnitAmount is
// in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest carries the priced cart plus the opaque metadata the
// completion side will get back verbatim.
type SessionRequest struct {
	LineItems []LineItem
	Metadata  map[string]string
}

type Session struct {
	ID  string
	URL string
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)
}

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")
