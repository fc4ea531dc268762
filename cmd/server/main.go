package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/marketgo/internal/config"
	"github.com/Skotchmaster/marketgo/internal/es"
	"github.com/Skotchmaster/marketgo/internal/handlers"
	"github.com/Skotchmaster/marketgo/internal/logging"
	"github.com/Skotchmaster/marketgo/internal/mykafka"
	"github.com/Skotchmaster/marketgo/internal/repo"
	"github.com/Skotchmaster/marketgo/internal/service"
	"github.com/Skotchmaster/marketgo/internal/service/payment"
	"github.com/Skotchmaster/marketgo/internal/service/token"
	httpserver "github.com/Skotchmaster/marketgo/internal/transport/http"
	"github.com/Skotchmaster/marketgo/internal/worker"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("Ошибка инициализации БД: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	storage := repo.New(db)
	cartService := &service.CartService{Repo: storage}
	checkoutService := &service.CheckoutService{
		Repo:       storage,
		Sessions:   payment.NewStripeClient(configuration.STRIPE_SECRET_KEY),
		SuccessURL: configuration.CLIENT_URL + "/success",
		CancelURL:  configuration.CLIENT_URL + "/cancel",
	}
	webhookService := &service.WebhookService{Repo: storage, Producer: prod, Log: logger}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:             db,
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, ES: esClient, Producer: prod},
		CartHandler:    &handlers.CartHandler{Service: cartService, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{Checkout: checkoutService, Repo: storage, Producer: prod},
		WebhookHandler: &handlers.WebhookHandler{Service: webhookService, Secret: configuration.STRIPE_WEBHOOK_SECRET, Log: logger},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: es.ProductIndex},
		TokenService:   &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	sweeper := &worker.FailureSweeper{Repo: storage, Log: logger, Interval: 5 * time.Minute}
	go sweeper.Run(workerCtx)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
