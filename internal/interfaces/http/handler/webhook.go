package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"github.com/taskflow/backend/internal/infrastructure/webhook"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// DefaultWebhookBodyLimit caps a webhook delivery body
const DefaultWebhookBodyLimit int64 = 1 << 20

// Webhook outcomes recorded on the delivery counter
const (
	webhookRejected  = "rejected"
	webhookProcessed = "processed"
	webhookFailed    = "failed"
)

// WebhookVerifier checks a delivery signature
type WebhookVerifier interface {
	Verify(h webhook.Headers, body []byte) error
}

// WebhookProcessor applies a decoded provider event
type WebhookProcessor interface {
	Process(ctx context.Context, deliveryID string, evt identityapp.SyncEvent) error
}

// WebhookHandler receives identity-provider deliveries
type WebhookHandler struct {
	BaseHandler
	verifier    WebhookVerifier
	processor   WebhookProcessor
	metrics     *telemetry.CollaborationMetrics
	maxBodySize int64
}

// NewWebhookHandler creates a new WebhookHandler. metrics may be nil.
func NewWebhookHandler(verifier WebhookVerifier, processor WebhookProcessor, metrics *telemetry.CollaborationMetrics, maxBodySize int64) *WebhookHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultWebhookBodyLimit
	}
	return &WebhookHandler{
		verifier:    verifier,
		processor:   processor,
		metrics:     metrics,
		maxBodySize: maxBodySize,
	}
}

// HandleIdentityEvent handles POST /api/webhooks/identity. The signature is
// checked over the raw body before anything is decoded.
func (h *WebhookHandler) HandleIdentityEvent(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.L(ctx)

	headers := webhook.HeadersFrom(c.Request.Header)
	if !headers.Complete() {
		h.metrics.WebhookHandled(ctx, "unknown", webhookRejected)
		h.BadRequest(c, "Missing webhook signature headers")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBodySize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if int64(len(body)) > h.maxBodySize {
		h.metrics.WebhookHandled(ctx, "unknown", webhookRejected)
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Webhook payload too large")
		return
	}

	if err := h.verifier.Verify(headers, body); err != nil {
		log.Warn("Webhook signature rejected",
			zap.String("delivery_id", headers.ID),
			zap.Error(err),
		)
		h.metrics.WebhookHandled(ctx, "unknown", webhookRejected)
		h.Error(c, http.StatusBadRequest, dto.ErrCodeSignatureInvalid, "Invalid webhook signature")
		return
	}

	evt, err := webhook.Decode(body)
	if err != nil {
		h.metrics.WebhookHandled(ctx, "unknown", webhookRejected)
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed webhook payload")
		return
	}

	// A provider retry must not be needed just because it hung up early.
	if err := h.processor.Process(context.WithoutCancel(ctx), headers.ID, evt); err != nil {
		h.metrics.WebhookHandled(ctx, evt.EventType(), webhookFailed)
		log.Error("Webhook processing failed",
			zap.String("delivery_id", headers.ID),
			zap.String("type", evt.EventType()),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Webhook processing timed out")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.metrics.WebhookHandled(ctx, evt.EventType(), webhookProcessed)
	h.Message(c, "Webhook received")
}
