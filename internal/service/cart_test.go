package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/models"
	"github.com/Skotchmaster/marketgo/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.WebhookFailure{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func seedProducts(t *testing.T, db *gorm.DB) (p1, p2 models.Product) {
	p1 = models.Product{
		OwnerID: 99, Title: "keyboard", Description: "mechanical",
		Price: 10.00, Category: "electronics", Stock: 50, Color: "black",
	}
	p2 = models.Product{
		OwnerID: 99, Title: "mug", Description: "ceramic",
		Price: 5.00, Category: "home", Stock: 30, Color: "white",
	}
	require.NoError(t, db.Create(&p1).Error)
	require.NoError(t, db.Create(&p2).Error)
	return p1, p2
}

func newCartService(t *testing.T) (*CartService, *gorm.DB) {
	db := newTestDB(t)
	return &CartService{Repo: repo.New(db)}, db
}

func TestGetCartWithoutCart(t *testing.T) {
	svc, _ := newCartService(t)

	cart, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalPrice)
}

func TestAddItemTotals(t *testing.T) {
	svc, db := newCartService(t)
	p1, p2 := seedProducts(t, db)

	cart, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 20.00, cart.TotalPrice)

	cart, err = svc.AddItem(context.Background(), 1, p2.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	require.Equal(t, 25.00, cart.TotalPrice)

	// same product again increments the existing line
	cart, err = svc.AddItem(context.Background(), 1, p1.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	require.Equal(t, 35.00, cart.TotalPrice)
}

func TestAddItemDefaultQuantity(t *testing.T) {
	svc, db := newCartService(t)
	p1, _ := seedProducts(t, db)

	cart, err := svc.AddItem(context.Background(), 1, p1.ID, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(1), cart.Items[0].Quantity)
	require.Equal(t, 10.00, cart.TotalPrice)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.AddItem(context.Background(), 1, 12345, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTotalFollowsPriceChange(t *testing.T) {
	svc, db := newCartService(t)
	p1, _ := seedProducts(t, db)

	cart, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 20.00, cart.TotalPrice)

	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", p1.ID).Update("price", 12.50).Error)

	cart, err = svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 25.00, cart.TotalPrice)
}

func TestRemoveItem(t *testing.T) {
	svc, db := newCartService(t)
	p1, p2 := seedProducts(t, db)

	_, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), 1, p2.ID, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(context.Background(), 1, p1.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 5.00, cart.TotalPrice)

	cart, err = svc.RemoveItem(context.Background(), 1, p2.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalPrice)
}

func TestRemoveItemNotInCart(t *testing.T) {
	svc, db := newCartService(t)
	p1, p2 := seedProducts(t, db)

	_, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)

	_, err = svc.RemoveItem(context.Background(), 1, p2.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// cart is unchanged
	cart, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 20.00, cart.TotalPrice)
}

func TestRemoveItemWithoutCart(t *testing.T) {
	svc, db := newCartService(t)
	p1, _ := seedProducts(t, db)

	_, err := svc.RemoveItem(context.Background(), 1, p1.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	svc, db := newCartService(t)
	p1, _ := seedProducts(t, db)

	_, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)

	// quantity is set exactly, not incremented
	cart, err := svc.UpdateQuantity(context.Background(), 1, p1.ID, 5)
	require.NoError(t, err)
	require.Equal(t, uint(5), cart.Items[0].Quantity)
	require.Equal(t, 50.00, cart.TotalPrice)
}

func TestUpdateQuantityRejectsNonPositive(t *testing.T) {
	svc, db := newCartService(t)
	p1, _ := seedProducts(t, db)

	_, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)

	for _, q := range []int{0, -1, -100} {
		_, err = svc.UpdateQuantity(context.Background(), 1, p1.ID, q)
		require.ErrorIs(t, err, ErrValidation)
	}

	cart, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(2), cart.Items[0].Quantity)
	require.Equal(t, 20.00, cart.TotalPrice)
}

func TestUpdateQuantityLineAbsent(t *testing.T) {
	svc, db := newCartService(t)
	p1, p2 := seedProducts(t, db)

	_, err := svc.AddItem(context.Background(), 1, p1.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(context.Background(), 1, p2.ID, 3)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClearCart(t *testing.T) {
	svc, db := newCartService(t)
	p1, p2 := seedProducts(t, db)

	_, err := svc.AddItem(context.Background(), 1, p1.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), 1, p2.ID, 1)
	require.NoError(t, err)

	cart, err := svc.Clear(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalPrice)

	// cart row survives, it is emptied rather than deleted
	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestClearWithoutCart(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.Clear(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}
