package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ErrBadSignature marks a webhook payload that failed signature
// verification. Nothing downstream of VerifyEvent may see such a payload.
var ErrBadSignature = errors.New("invalid webhook signature")

// VerifyEvent authenticates a raw webhook payload against the shared
// endpoint secret. It is transport-free on purpose: handlers pass the raw
// body bytes and the Stripe-Signature header value.
func VerifyEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%s: %w", err, ErrBadSignature)
	}
	return event, nil
}

type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

type SessionRequest struct {
	LineItems     []LineItem
	Metadata      map[string]string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string
	URL string
}

// SessionCreator is what the checkout service depends on; tests substitute
// a stub instead of calling Stripe.
type SessionCreator interface {
	Create(ctx context.Context, req *SessionRequest) (*Session, error)
}

type StripeClient struct {
	Key string
}

func NewStripeClient(key string) *StripeClient {
	return &StripeClient{Key: key}
}

func (c *StripeClient) Create(ctx context.Context, req *SessionRequest) (*Session, error) {
	stripe.Key = c.Key

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.Metadata = req.Metadata
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, li := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			productData.Description = stripe.String(li.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(li.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(li.UnitAmount),
				ProductData: productData,
			},
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}
