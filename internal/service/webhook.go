package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v81"

	"github.com/Skotchmaster/marketgo/internal/models"
	"github.com/Skotchmaster/marketgo/internal/money"
	"github.com/Skotchmaster/marketgo/internal/mykafka"
	"github.com/Skotchmaster/marketgo/internal/repo"
)

// DefaultAddress fills the order when the session carries no delivery
// address. There is no address collection upstream yet.
const DefaultAddress = "Not provided"

type WebhookService struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	Log      *slog.Logger
}

// HandleEvent processes an already-verified webhook event. A nil return
// means the delivery can be acked; materialization failures are recorded
// durably and logged, and the caller is expected to ack regardless so the
// processor does not retry forever.
func (s *WebhookService) HandleEvent(ctx context.Context, event stripe.Event) error {
	if event.Type != "checkout.session.completed" {
		s.Log.Debug("ignoring webhook event", "type", event.Type, "id", event.ID)
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return s.fail(ctx, event, "", fmt.Errorf("decode session payload: %w", err))
	}

	params, err := materializeParams(&sess)
	if err != nil {
		return s.fail(ctx, event, paymentIntentID(&sess), err)
	}

	order, err := s.Repo.MaterializeOrder(ctx, *params)
	if errors.Is(err, repo.ErrAlreadyProcessed) {
		s.Log.Info("duplicate webhook delivery, order already exists",
			"payment_intent", params.PaymentIntentID, "event", event.ID)
		return nil
	}
	if err != nil {
		return s.fail(ctx, event, params.PaymentIntentID, err)
	}

	s.Log.Info("order materialized from checkout session",
		"order", order.ID, "user", order.UserID, "total", order.TotalAmount)

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, "order_events", strconv.FormatUint(uint64(order.UserID), 10), map[string]any{
		"type":    "order_materialized",
		"orderID": order.ID,
		"userID":  order.UserID,
		"total":   order.TotalAmount,
	}); err != nil {
		s.Log.Error("kafka publish error", "error", err)
	}

	return nil
}

func materializeParams(sess *stripe.CheckoutSession) (*repo.MaterializeParams, error) {
	pi := paymentIntentID(sess)
	if pi == "" {
		return nil, errors.New("session has no payment intent")
	}

	userID, err := strconv.ParseUint(sess.Metadata["userId"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad userId metadata %q: %w", sess.Metadata["userId"], err)
	}
	cartID, err := strconv.ParseUint(sess.Metadata["cartId"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad cartId metadata %q: %w", sess.Metadata["cartId"], err)
	}
	total, err := money.ParseAmount(sess.Metadata["totalAmount"])
	if err != nil {
		return nil, fmt.Errorf("bad totalAmount metadata %q: %w", sess.Metadata["totalAmount"], err)
	}

	return &repo.MaterializeParams{
		UserID:          uint(userID),
		CartID:          uint(cartID),
		TotalAmount:     total,
		Address:         DefaultAddress,
		Email:           sess.CustomerEmail,
		PaymentIntentID: pi,
		SessionID:       sess.ID,
	}, nil
}

func paymentIntentID(sess *stripe.CheckoutSession) string {
	if sess.PaymentIntent == nil {
		return ""
	}
	return sess.PaymentIntent.ID
}

// fail records the delivery durably so a paid order is never silently lost,
// then surfaces the cause to the caller for logging. The HTTP handler still
// acks the delivery.
func (s *WebhookService) fail(ctx context.Context, event stripe.Event, pi string, cause error) error {
	rec := models.WebhookFailure{
		EventID:         event.ID,
		EventType:       string(event.Type),
		PaymentIntentID: pi,
		Reason:          cause.Error(),
		Payload:         event.Data.Raw,
	}
	if err := s.Repo.RecordWebhookFailure(ctx, &rec); err != nil {
		s.Log.Error("failed to record webhook failure", "error", err, "cause", cause)
	}

	s.Log.Error("webhook materialization failed",
		"event", event.ID, "payment_intent", pi, "error", cause)
	return cause
}
