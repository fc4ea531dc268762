package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/models"
)

func newProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db}
}

func productForm(overrides map[string]string) string {
	form := url.Values{}
	form.Set("title", "keyboard")
	form.Set("description", "mechanical keyboard")
	form.Set("price", "49.99")
	form.Set("stock", "10")
	form.Set("category", "electronics")
	form.Set("color", "black")
	for k, v := range overrides {
		form.Set(k, v)
	}
	return form.Encode()
}

func TestCreateProduct(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)

	c, rec := formContext(http.MethodPost, "/api/products", productForm(nil))
	asUser(c, 7)
	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var prod models.Product
	require.NoError(t, db.Where("title = ?", "keyboard").First(&prod).Error)
	require.Equal(t, uint(7), prod.OwnerID)
	require.Equal(t, 49.99, prod.Price)
	require.Equal(t, "electronics", prod.Category)
}

func TestCreateProductValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"bad price":        {"price": "-1"},
		"non-number price": {"price": "free"},
		"bad stock":        {"stock": "-5"},
		"bad category":     {"category": "weapons"},
		"bad color":        {"color": "magenta"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			h := newProductHandler(newHandlerDB(t))
			c, _ := formContext(http.MethodPost, "/api/products", productForm(overrides))
			asUser(c, 7)
			requireHTTPError(t, h.CreateProduct(c), http.StatusBadRequest)
		})
	}
}

func TestGetProductByID(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)
	p := seedProduct(t, db, "lamp", 15.00)

	c, rec := jsonContext(http.MethodGet, "/api/products/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, "lamp", got.Title)
}

func TestGetProductNotFound(t *testing.T) {
	h := newProductHandler(newHandlerDB(t))

	c, _ := jsonContext(http.MethodGet, "/api/products/999", "")
	c.SetParamNames("id")
	c.SetParamValues("999")
	requireHTTPError(t, h.GetProduct(c), http.StatusNotFound)
}

func TestGetProductsPagination(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)
	for i := 0; i < 25; i++ {
		seedProduct(t, db, fmt.Sprintf("item-%02d", i), 1.00)
	}

	c, rec := jsonContext(http.MethodGet, "/api/products?page=2&size=10", "")
	require.NoError(t, h.GetProducts(c))

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Page       int   `json:"page"`
			Total      int64 `json:"total"`
			TotalPages int64 `json:"total_pages"`
			HasPrev    bool  `json:"has_prev"`
			HasNext    bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 10)
	require.Equal(t, "item-10", resp.Data[0].Title)
	require.Equal(t, int64(25), resp.Meta.Total)
	require.Equal(t, int64(3), resp.Meta.TotalPages)
	require.True(t, resp.Meta.HasPrev)
	require.True(t, resp.Meta.HasNext)
}

func TestUpdateProductOwnerOnly(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)
	p := seedProduct(t, db, "lamp", 15.00) // owner 9

	c, _ := formContext(http.MethodPut, "/api/products/1", productForm(map[string]string{"price": "20.00"}))
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	asUser(c, 1)
	requireHTTPError(t, h.UpdateProduct(c), http.StatusForbidden)
}

func TestUpdateProductAsOwner(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)
	p := seedProduct(t, db, "lamp", 15.00)

	form := url.Values{}
	form.Set("price", "20.00")
	form.Set("title", "desk lamp")
	c, rec := formContext(http.MethodPut, "/api/products/1", form.Encode())
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	asUser(c, p.OwnerID)
	require.NoError(t, h.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.Equal(t, 20.00, stored.Price)
	require.Equal(t, "desk lamp", stored.Title)
	require.Equal(t, "electronics", stored.Category) // untouched fields survive
}

func TestUpdateProductAsAdmin(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)
	p := seedProduct(t, db, "lamp", 15.00)

	form := url.Values{}
	form.Set("price", "25.00")
	c, _ := formContext(http.MethodPut, "/api/products/1", form.Encode())
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	c.Set("userID", uint(1))
	c.Set("role", "admin")
	require.NoError(t, h.UpdateProduct(c))

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.Equal(t, 25.00, stored.Price)
}

func TestDeleteProduct(t *testing.T) {
	db := newHandlerDB(t)
	h := newProductHandler(db)
	p := seedProduct(t, db, "lamp", 15.00)
	require.NoError(t, db.Create(&models.ProductImage{
		ProductID: p.ID, Data: []byte{1, 2, 3}, ContentType: "image/png",
	}).Error)

	c, rec := jsonContext(http.MethodDelete, "/api/products/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	asUser(c, p.OwnerID)
	require.NoError(t, h.DeleteProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
	require.NoError(t, db.Model(&models.ProductImage{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}
