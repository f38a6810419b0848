package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ec-marketplace/internal/api"
	"github.com/example/ec-marketplace/internal/auth"
	"github.com/example/ec-marketplace/internal/cart"
	"github.com/example/ec-marketplace/internal/catalog"
	"github.com/example/ec-marketplace/internal/config"
	"github.com/example/ec-marketplace/internal/infrastructure/kafka"
	"github.com/example/ec-marketplace/internal/infrastructure/postgres"
	"github.com/example/ec-marketplace/internal/ordering"
	"github.com/example/ec-marketplace/internal/sales"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if err := cfg.ValidateForAPI(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Marketplace API")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Order topic: %s", cfg.OrderTopic)
	log.Printf("[API] Review topic: %s", config.ReviewTopic)

	// Make sure the pipeline topics exist before accepting submissions.
	if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers[0], cfg.OrderTopic, config.ReviewTopic); err != nil {
		log.Printf("[API] Topic bootstrap failed (continuing): %v", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	catalogDB, err := postgres.Connect(cfg.CatalogDatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to catalog database: %v", err)
	}
	defer catalogDB.Close()

	salesDB, err := postgres.Connect(cfg.SalesDatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to sales database: %v", err)
	}
	defer salesDB.Close()
	log.Println("[API] Connected to PostgreSQL (catalog + sales)")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	catalogStore := catalog.NewStore(catalogDB)
	salesStore := sales.NewStore(salesDB)
	cartStore := cart.NewStore(rdb)
	submitter := ordering.NewSubmitter(producer, cfg.OrderTopic)

	jwtService := auth.NewJWTService(cfg.JWTSecret, 24*time.Hour)

	router := api.NewRouter(api.RouterConfig{
		AuthHandlers:    api.NewAuthHandlers(salesStore, jwtService),
		ProductHandlers: api.NewProductHandlers(catalogStore),
		OrderHandlers:   api.NewOrderHandlers(submitter, salesStore, producer, config.ReviewTopic),
		CartHandlers:    api.NewCartHandlers(cartStore, submitter),
		PaymentHandlers: api.NewPaymentHandlers(),
		JWTService:      jwtService,
	})

	server := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.APIAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}
