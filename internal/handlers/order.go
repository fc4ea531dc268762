package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/mykafka"
	"github.com/Skotchmaster/marketgo/internal/repo"
	"github.com/Skotchmaster/marketgo/internal/service"
)

type OrderHandler struct {
	Checkout *service.CheckoutService
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

// CreateCheckoutSession opens a payment session and hands the redirect URL
// back to the client. No order exists yet: the webhook creates it once the
// processor confirms payment.
func (h *OrderHandler) CreateCheckoutSession(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	url, err := h.Checkout.CreateSession(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(userID), map[string]any{
		"type":   "checkout_session_created",
		"userID": userID,
	}); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	orders, err := h.Repo.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *OrderHandler) AdvanceStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Repo.AdvanceOrderStatus(c.Request().Context(), uint(id), req.Status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}
