package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/models"
)

var (
	// ErrAlreadyProcessed means an order for this payment intent exists.
	// Redelivered webhooks land here and must be treated as success.
	ErrAlreadyProcessed = errors.New("payment already processed")

	ErrInvalidTransition = errors.New("invalid status transition")
)

var statusRank = map[string]int{
	models.OrderStatusPending:   0,
	models.OrderStatusPaid:      1,
	models.OrderStatusShipped:   2,
	models.OrderStatusDelivered: 3,
}

type MaterializeParams struct {
	UserID          uint
	CartID          uint
	TotalAmount     float64
	Address         string
	Email           string
	PaymentIntentID string
	SessionID       string
}

// MaterializeOrder converts a completed payment session into an order and
// empties the source cart, all in one transaction. The existence check plus
// the unique index on payment_intent_id make redelivery a no-op.
func (r *GormRepo) MaterializeOrder(ctx context.Context, p MaterializeParams) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Order
		err := tx.Where("payment_intent_id = ?", p.PaymentIntentID).First(&existing).Error
		if err == nil {
			return ErrAlreadyProcessed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var cart models.Cart
		if err := tx.Preload("Items").First(&cart, p.CartID).Error; err != nil {
			return err
		}

		order = models.Order{
			UserID:          p.UserID,
			TotalAmount:     p.TotalAmount,
			Address:         p.Address,
			Email:           p.Email,
			PaymentIntentID: p.PaymentIntentID,
			SessionID:       p.SessionID,
			Status:          models.OrderStatusPaid,
			CreatedAt:       time.Now().Unix(),
		}
		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyProcessed
			}
			return err
		}

		for _, it := range cart.Items {
			oi := models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, oi)
		}

		return emptyCart(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// AdvanceOrderStatus moves an order strictly forward through the status
// machine. Cancellation is only reachable before shipment.
func (r *GormRepo) AdvanceOrderStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			return err
		}

		if !validTransition(order.Status, status) {
			return ErrInvalidTransition
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func validTransition(from, to string) bool {
	if from == models.OrderStatusCancelled {
		return false
	}
	if to == models.OrderStatusCancelled {
		return from == models.OrderStatusPending || from == models.OrderStatusPaid
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

func (r *GormRepo) RecordWebhookFailure(ctx context.Context, f *models.WebhookFailure) error {
	f.CreatedAt = time.Now().Unix()
	return r.DB.WithContext(ctx).Create(f).Error
}

func (r *GormRepo) UnresolvedFailures(ctx context.Context, limit int) ([]models.WebhookFailure, error) {
	var failures []models.WebhookFailure
	if err := r.DB.WithContext(ctx).
		Where("resolved = ?", false).Order("id ASC").Limit(limit).
		Find(&failures).Error; err != nil {
		return nil, err
	}
	return failures, nil
}
