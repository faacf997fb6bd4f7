package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bkode/storefront/internal/cache"
	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/metrics"
	"github.com/bkode/storefront/internal/repository"
)

// CompletedSession is a decoded, signature-verified "session completed"
// notification from the payment gateway.
type CompletedSession struct {
	SessionID  string
	PaymentRef string
	Provider   string
	UserID     string
	// RawSnapshot is the cart snapshot exactly as embedded at session
	// creation time.
	RawSnapshot string
}

// CompletionService materializes orders from completed checkout sessions,
// exactly once under at-least-once delivery. The guard is the payment lookup
// by session id plus the unique constraint behind MaterializeOrder; replays
// are success, not an error path.
type CompletionService struct {
	orders       repository.OrderRepository
	productCache cache.ProductCache
	metrics      *metrics.Metrics
	log          *slog.Logger
}

func NewCompletionService(
	orders repository.OrderRepository,
	productCache cache.ProductCache,
	m *metrics.Metrics,
	log *slog.Logger,
) *CompletionService {
	return &CompletionService{
		orders:       orders,
		productCache: productCache,
		metrics:      m,
		log:          log,
	}
}

func (s *CompletionService) HandleSessionCompleted(ctx context.Context, session *CompletedSession) error {
	existing, err := s.orders.GetPaymentBySessionID(ctx, session.SessionID)
	if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		return fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.metrics.DuplicateCompletions.Inc()
		s.log.Info("duplicate completion skipped",
			slog.String("session_id", session.SessionID),
			slog.String("order_id", existing.OrderID.String()))
		return nil
	}

	snapshot, err := domain.DecodeSnapshot(session.UserID, session.RawSnapshot)
	if err != nil {
		// A malformed event must never half-materialize an order; drop it
		// and let the gateway see success so it stops redelivering.
		s.log.Warn("discarding completion with unusable metadata",
			slog.String("session_id", session.SessionID),
			slog.Any("err", err))
		return nil
	}

	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      snapshot.UserID,
		TotalAmount: snapshot.Total(),
		Status:      domain.OrderStatusPaid,
		Items:       make([]domain.OrderItem, 0, len(snapshot.Lines)),
	}
	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	payment := &domain.Payment{
		PaymentRef: session.PaymentRef,
		SessionID:  session.SessionID,
		Status:     domain.PaymentStatusSuccess,
		Provider:   session.Provider,
	}

	err = s.orders.MaterializeOrder(ctx, order, payment)
	if errors.Is(err, repository.ErrDuplicateSession) {
		// Lost the race against a concurrent duplicate delivery; same
		// outcome as the pre-check hit.
		s.metrics.DuplicateCompletions.Inc()
		s.log.Info("concurrent duplicate completion skipped",
			slog.String("session_id", session.SessionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("materialize order: %w", err)
	}

	s.metrics.OrdersMaterialized.Inc()
	s.log.Info("order materialized",
		slog.String("order_id", order.ID.String()),
		slog.String("user_id", order.UserID),
		slog.String("session_id", session.SessionID),
		slog.Float64("total", order.TotalAmount))

	// Stock changed; drop stale cache entries. Best effort, the cache is a
	// read optimization only.
	if s.productCache != nil {
		for _, item := range order.Items {
			if err := s.productCache.Delete(ctx, item.ProductID); err != nil {
				s.log.Warn("product cache invalidation failed",
					slog.Int64("product_id", item.ProductID),
					slog.Any("err", err))
			}
		}
	}

	return nil
}
