package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/service"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

const maxWebhookBody = 1 << 20

// webhookEvent is the provider's event envelope. Only the intent id and its
// new status matter to the reservation core.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string               `json:"id"`
			Status gateway.IntentStatus `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// WebhookHandler receives payment intent status changes from the gateway
type WebhookHandler struct {
	payments service.PaymentService
	secret   string
	metrics  *metrics.Metrics
}

func NewWebhookHandler(payments service.PaymentService, secret string, m *metrics.Metrics) *WebhookHandler {
	if m == nil {
		m = metrics.Default()
	}
	return &WebhookHandler{payments: payments, secret: secret, metrics: m}
}

func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.reject(w, "unreadable", "Failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !gateway.VerifyHMAC(body, signature, h.secret) {
		logger.Warn("Rejected payment webhook with bad signature", "remote", r.RemoteAddr)
		h.reject(w, "invalid_signature", "Invalid signature", http.StatusUnauthorized)
		return
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil || evt.Data.Object.ID == "" {
		h.reject(w, "malformed", "Malformed event", http.StatusBadRequest)
		return
	}
	intentID, status := evt.Data.Object.ID, evt.Data.Object.Status

	ctx := r.Context()
	if err := h.payments.RecordWebhook(ctx, &domain.PaymentWebhook{
		IntentID:  intentID,
		Status:    string(status),
		Signature: signature,
		Body:      body,
	}); err != nil {
		logger.Error("Failed to record payment webhook", "intentID", intentID, "error", err)
		h.reject(w, "error", "Failed to record event", http.StatusInternalServerError)
		return
	}

	if err := h.payments.HandleGatewayEvent(ctx, intentID, status); err != nil {
		logger.Error("Failed to apply payment webhook", "intentID", intentID, "status", status, "error", err)
		// Validation failures will never succeed on redelivery.
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindValidation {
			h.reject(w, "invalid", de.Message, http.StatusBadRequest)
			return
		}
		h.reject(w, "error", "Failed to apply event", http.StatusInternalServerError)
		return
	}

	h.metrics.WebhooksReceived.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))
}

func (h *WebhookHandler) reject(w http.ResponseWriter, result, msg string, code int) {
	h.metrics.WebhooksReceived.WithLabelValues(result).Inc()
	http.Error(w, msg, code)
}
