package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketgo/internal/logging"
	"github.com/Skotchmaster/marketgo/internal/service"
	"github.com/Skotchmaster/marketgo/internal/service/payment"
)

const maxWebhookBody = int64(65536)

type WebhookHandler struct {
	Service *service.WebhookService
	Secret  string
	Log     *slog.Logger
}

// Handle receives Stripe webhook deliveries. Signature verification runs on
// the unparsed body before anything else; a bad signature is the only path
// that rejects the delivery. Everything past verification is acked so the
// processor does not retry forever.
func (h *WebhookHandler) Handle(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxWebhookBody)

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	event, err := payment.VerifyEvent(payload, req.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		h.Log.Warn("webhook signature verification failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "webhook signature verification failed")
	}

	log := h.Log.With("trace", uuid.NewString(), "event", event.ID)
	ctx := logging.IntoContext(req.Context(), log)
	if err := h.Service.HandleEvent(ctx, event); err != nil {
		// recorded durably by the service; ack anyway
		log.Error("webhook processing error", "error", err)
	}

	return c.String(http.StatusOK, "Webhook received")
}
