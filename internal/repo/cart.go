package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/models"
)

// GetCart always recomputes the total against current product prices; a
// price change between reads changes the total on the next read.
func (r *GormRepo) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return err
		}
		return r.refreshTotal(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem creates the cart lazily on first add. The quantity bump is a single
// atomic UPDATE so concurrent adds for the same user cannot lose increments.
func (r *GormRepo) AddItem(ctx context.Context, userID, productID, quantity uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return err
		}

		if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			item := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		return r.refreshTotal(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) RemoveItem(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return err
		}

		res := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return r.refreshTotal(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateQuantity sets the line quantity exactly, it is not an increment.
func (r *GormRepo) UpdateQuantity(ctx context.Context, userID, productID, quantity uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return r.refreshTotal(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return err
		}
		return emptyCart(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// refreshTotal recomputes the cart total against current product prices.
// The total is never carried over from a previous read.
func (r *GormRepo) refreshTotal(tx *gorm.DB, cart *models.Cart) error {
	var total float64
	if err := tx.Model(&models.CartItem{}).
		Select("COALESCE(SUM(cart_items.quantity * products.price), 0)").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cart.ID).
		Scan(&total).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Update("total_price", total).Error; err != nil {
		return err
	}
	cart.TotalPrice = total

	return tx.Where("cart_id = ?", cart.ID).Find(&cart.Items).Error
}

func emptyCart(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Update("total_price", 0).Error; err != nil {
		return err
	}
	cart.TotalPrice = 0
	cart.Items = nil
	return nil
}
