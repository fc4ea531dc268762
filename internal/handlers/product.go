package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/es"
	"github.com/Skotchmaster/marketgo/internal/models"
	"github.com/Skotchmaster/marketgo/internal/mykafka"
	"github.com/Skotchmaster/marketgo/internal/util"
)

const maxProductImages = 15

var productCategories = map[string]bool{
	"electronics": true,
	"clothing":    true,
	"home":        true,
	"books":       true,
	"toys":        true,
}

var productColors = map[string]bool{
	"red":    true,
	"blue":   true,
	"green":  true,
	"black":  true,
	"white":  true,
	"yellow": true,
	"purple": true,
}

type ProductHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Producer *mykafka.Producer
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func readImages(files []*multipart.FileHeader) ([]models.ProductImage, error) {
	if len(files) > maxProductImages {
		files = files[:maxProductImages]
	}
	images := make([]models.ProductImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, models.ProductImage{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}
	return images, nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	stock, err := strconv.Atoi(c.FormValue("stock"))
	if err != nil || stock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid stock")
	}
	category := c.FormValue("category")
	if !productCategories[category] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	color := c.FormValue("color")
	if !productColors[color] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid color")
	}

	prod := models.Product{
		OwnerID:     userID,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       price,
		Category:    category,
		Stock:       uint(stock),
		Color:       color,
		IsFeatured:  c.FormValue("is_featured") == "true",
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		images, err := readImages(form.File["images"])
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read images")
		}
		prod.Images = images
	}

	if err := h.DB.WithContext(c.Request().Context()).Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := es.IndexProduct(c.Request().Context(), h.ES, &prod); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"ownerID":   userID,
		"title":     prod.Title,
	})
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var prod models.Product
	if err := h.DB.WithContext(c.Request().Context()).
		Preload("Images").First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, prod)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	db := h.DB.WithContext(c.Request().Context())

	var total int64
	if err := db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := db.Model(&models.Product{}).Order("id ASC").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) MyProducts(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var items []models.Product
	if err := h.DB.WithContext(c.Request().Context()).
		Where("owner_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"products": items})
}

// UpdateProduct applies the multipart fields that are present; a new set of
// images replaces the old one. Only the owner or an admin may update.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	db := h.DB.WithContext(c.Request().Context())

	var prod models.Product
	if err := db.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if prod.OwnerID != userID && !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "not the owner")
	}

	if v := c.FormValue("title"); v != "" {
		prod.Title = v
	}
	if v := c.FormValue("description"); v != "" {
		prod.Description = v
	}
	if v := c.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
		}
		prod.Price = price
	}
	if v := c.FormValue("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid stock")
		}
		prod.Stock = uint(stock)
	}
	if v := c.FormValue("category"); v != "" {
		if !productCategories[v] {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
		}
		prod.Category = v
	}
	if v := c.FormValue("color"); v != "" {
		if !productColors[v] {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid color")
		}
		prod.Color = v
	}
	if v := c.FormValue("is_featured"); v != "" {
		prod.IsFeatured = v == "true"
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if form, err := c.MultipartForm(); err == nil && form != nil && len(form.File["images"]) > 0 {
			images, err := readImages(form.File["images"])
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "cannot read images")
			}
			if err := tx.Where("product_id = ?", prod.ID).
				Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
			for i := range images {
				images[i].ProductID = prod.ID
			}
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return tx.Save(&prod).Error
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	if err := es.IndexProduct(c.Request().Context(), h.ES, &prod); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
	})
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	db := h.DB.WithContext(c.Request().Context())

	var prod models.Product
	if err := db.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if prod.OwnerID != userID && !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "not the owner")
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", prod.ID).
			Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&prod).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	if err := es.DeleteProduct(c.Request().Context(), h.ES, prod.ID); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": prod.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"deleted": prod.ID})
}
