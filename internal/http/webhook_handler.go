package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/bkode/storefront/internal/metrics"
	"github.com/bkode/storefront/internal/service"
)

const (
	maxWebhookBody        = 64 * 1024
	eventSessionCompleted = "checkout.session.completed"
)

type WebhookHandler struct {
	completion    *service.CompletionService
	webhookSecret string
	metrics       *metrics.Metrics
	log           *slog.Logger
}

func NewWebhookHandler(completion *service.CompletionService, webhookSecret string, m *metrics.Metrics, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		completion:    completion,
		webhookSecret: webhookSecret,
		metrics:       m,
		log:           log,
	}
}

// POST /api/v1/webhook/stripe
//
// Signature verification runs against the raw body, before any part of the
// event is processed. Event types other than checkout.session.completed are
// acknowledged and ignored; a processed or replayed completion answers
// {"status":"ok"} so the gateway stops redelivering.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		h.metrics.WebhookFailures.Inc()
		respondError(w, http.StatusInternalServerError, "webhook_misconfigured", "webhook secret not configured")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		h.metrics.WebhookFailures.Inc()
		respondError(w, http.StatusBadRequest, "missing_signature", "missing Stripe-Signature header")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.WebhookFailures.Inc()
		respondError(w, http.StatusBadRequest, "invalid_payload", "failed to read request body")
		return
	}

	event, err := webhook.ConstructEvent(payload, signature, h.webhookSecret)
	if err != nil {
		h.metrics.WebhookFailures.Inc()
		h.log.Warn("webhook signature verification failed", slog.Any("err", err))
		respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	if event.Type != eventSessionCompleted {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.metrics.WebhookFailures.Inc()
		respondError(w, http.StatusBadRequest, "invalid_payload", "malformed checkout session object")
		return
	}

	completed := &service.CompletedSession{
		SessionID:   sess.ID,
		Provider:    "stripe",
		UserID:      sess.Metadata["user_id"],
		RawSnapshot: sess.Metadata["cart_snapshot"],
	}
	if sess.PaymentIntent != nil {
		completed.PaymentRef = sess.PaymentIntent.ID
	}

	if err := h.completion.HandleSessionCompleted(r.Context(), completed); err != nil {
		h.metrics.WebhookFailures.Inc()
		h.log.Error("failed to process completion",
			slog.String("session_id", completed.SessionID),
			slog.Any("err", err))
		// Non-200 so the gateway's own redelivery retries; the idempotency
		// guard makes the retry safe.
		respondError(w, http.StatusInternalServerError, "completion_failed", "failed to process webhook")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
