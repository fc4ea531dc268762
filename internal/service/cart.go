package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/models"
	"github.com/Skotchmaster/marketgo/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

// GetCart never fails with not-found: a user without a cart gets the empty
// representation. This asymmetry with the mutating operations is deliberate.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID, quantity uint) (*models.Cart, error) {
	if quantity == 0 {
		quantity = 1
	}

	cart, err := s.Repo.AddItem(ctx, userID, productID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	cart, err := s.Repo.RemoveItem(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be greater than 0: %w", ErrValidation)
	}

	cart, err := s.Repo.UpdateQuantity(ctx, userID, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.Repo.ClearCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}
