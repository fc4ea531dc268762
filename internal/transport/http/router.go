package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketgo/internal/handlers"
	"github.com/Skotchmaster/marketgo/internal/service/token"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	WebhookHandler *handlers.WebhookHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	// webhook gets the raw body and must stay outside auth middleware
	e.POST("/webhook/stripe", d.WebhookHandler.Handle)

	api := e.Group("/api")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/logout", d.AuthHandler.LogOut)

	api.GET("/search", d.SearchHandler.Search)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/mine", d.ProductHandler.MyProducts, d.TokenService.AutoRefreshMiddleware)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, d.TokenService.AutoRefreshMiddleware)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, d.TokenService.AutoRefreshMiddleware)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.TokenService.AutoRefreshMiddleware)

	cart := api.Group("/cart", d.TokenService.AutoRefreshMiddleware)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add", d.CartHandler.AddToCart)
	cart.PUT("/update", d.CartHandler.UpdateQuantity)
	cart.DELETE("/remove", d.CartHandler.RemoveFromCart)
	cart.DELETE("/clear", d.CartHandler.ClearCart)

	api.POST("/checkout", d.OrderHandler.CreateCheckoutSession, d.TokenService.AutoRefreshMiddleware)
	api.GET("/orders", d.OrderHandler.ListOrders, d.TokenService.AutoRefreshMiddleware)

	admin := api.Group("/admin", d.TokenService.AutoRefreshMiddlewareAdmin)
	admin.PATCH("/orders/:id/status", d.OrderHandler.AdvanceStatus)
}
