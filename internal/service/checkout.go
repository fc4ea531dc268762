package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/money"
	"github.com/Skotchmaster/marketgo/internal/repo"
	"github.com/Skotchmaster/marketgo/internal/service/payment"
)

type CheckoutService struct {
	Repo       *repo.GormRepo
	Sessions   payment.SessionCreator
	SuccessURL string
	CancelURL  string
}

// CreateSession opens a payment session for the caller's cart. Line items
// are always sourced from the cart's product references with prices read
// live from the catalog at session-creation time. No local state changes:
// the cart is only consumed later by the webhook flow, so retrying this
// simply opens another independent session.
func (s *CheckoutService) CreateSession(ctx context.Context, userID uint) (string, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("checkout: %w", ErrEmptyCart)
	}
	if err != nil {
		return "", err
	}
	if len(cart.Items) == 0 {
		return "", fmt.Errorf("checkout: %w", ErrEmptyCart)
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	var total float64
	lineItems := make([]payment.LineItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, err := s.Repo.GetProduct(ctx, it.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("product %d not found: %w", it.ProductID, ErrNotFound)
		}
		if err != nil {
			return "", err
		}

		total += p.Price * float64(it.Quantity)
		lineItems = append(lineItems, payment.LineItem{
			Name:        p.Title,
			Description: p.Description,
			UnitAmount:  money.ToCents(p.Price),
			Quantity:    int64(it.Quantity),
		})
	}

	req := &payment.SessionRequest{
		LineItems:     lineItems,
		CustomerEmail: user.Email,
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
		Metadata: map[string]string{
			"userId":      strconv.FormatUint(uint64(userID), 10),
			"cartId":      strconv.FormatUint(uint64(cart.ID), 10),
			"totalAmount": money.FormatAmount(total),
		},
	}

	sess, err := s.Sessions.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %s: %w", err, ErrUpstream)
	}
	return sess.URL, nil
}
