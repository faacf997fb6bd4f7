package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/gateway"
	"github.com/bkode/storefront/internal/metrics"
	"github.com/bkode/storefront/internal/repository"
)

const (
	metadataUserID   = "user_id"
	metadataSnapshot = "cart_snapshot"
)

type CheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// CheckoutService turns the user's mutable cart into a priced, immutable
// snapshot and a hosted payment session. Nothing is persisted locally and
// stock is not reserved; the completion side owns all materialization.
type CheckoutService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	gw       gateway.PaymentGateway
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewCheckoutService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	gw gateway.PaymentGateway,
	m *metrics.Metrics,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		gw:       gw,
		metrics:  m,
		log:      log,
	}
}

func (s *CheckoutService) CreateSession(ctx context.Context, userID string) (*CheckoutResult, error) {
	lines, err := s.carts.ListCartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := &domain.CheckoutSnapshot{
		UserID: userID,
		Lines:  make([]domain.SnapshotLine, 0, len(lines)),
	}
	items := make([]gateway.LineItem, 0, len(lines))

	for _, line := range lines {
		// Deliberately bypasses the product cache: the stock check and the
		// snapshotted price must come from the live row.
		product, err := s.products.GetProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w for %q: available %d, requested %d",
				ErrInsufficientStock, product.Name, product.Stock, line.Quantity)
		}

		// Price at checkout time, not at add-to-cart time.
		snapshot.Lines = append(snapshot.Lines, domain.SnapshotLine{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
		items = append(items, gateway.LineItem{
			Name:       product.Name,
			UnitAmount: minorUnits(product.Price),
			Quantity:   int64(line.Quantity),
		})
	}

	encoded, err := snapshot.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}

	sess, err := s.gw.CreateCheckoutSession(ctx, &gateway.SessionRequest{
		LineItems: items,
		Metadata: map[string]string{
			metadataUserID:   userID,
			metadataSnapshot: encoded,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gateway.ErrGatewayUnavailable, err)
	}

	s.metrics.CheckoutSessionsCreated.Inc()
	s.log.Info("checkout session created",
		slog.String("user_id", userID),
		slog.String("session_id", sess.ID),
		slog.Int("lines", len(lines)))

	return &CheckoutResult{CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

func minorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
