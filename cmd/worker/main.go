package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/ec-marketplace/internal/catalog"
	"github.com/example/ec-marketplace/internal/config"
	"github.com/example/ec-marketplace/internal/fulfillment"
	"github.com/example/ec-marketplace/internal/infrastructure/kafka"
	"github.com/example/ec-marketplace/internal/infrastructure/postgres"
	"github.com/example/ec-marketplace/internal/sales"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log.Println("[Worker] ========================================")
	log.Println("[Worker] Marketplace Fulfillment Worker")
	log.Println("[Worker] ========================================")
	log.Printf("[Worker] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Worker] Topics: %s, %s", cfg.OrderTopic, config.ReviewTopic)
	log.Printf("[Worker] Group: %s", cfg.ConsumerGroup)
	log.Printf("[Worker] Order store: %s", cfg.OrderStoreBackend)

	if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers[0], cfg.OrderTopic, config.ReviewTopic); err != nil {
		log.Printf("[Worker] Topic bootstrap failed (continuing): %v", err)
	}

	catalogDB, err := postgres.Connect(cfg.CatalogDatabaseURL)
	if err != nil {
		log.Fatalf("[Worker] Failed to connect to catalog database: %v", err)
	}
	defer catalogDB.Close()
	catalogStore := catalog.NewStore(catalogDB)
	log.Println("[Worker] Connected to catalog database")

	var orderStore fulfillment.OrderStore
	switch cfg.OrderStoreBackend {
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[Worker] Failed to load AWS config: %v", err)
		}
		orderStore = sales.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoOrdersTable)
		log.Printf("[Worker] Using DynamoDB order store (table %s)", cfg.DynamoOrdersTable)
	default:
		salesDB, err := postgres.Connect(cfg.SalesDatabaseURL)
		if err != nil {
			log.Fatalf("[Worker] Failed to connect to sales database: %v", err)
		}
		defer salesDB.Close()
		orderStore = sales.NewStore(salesDB)
		log.Println("[Worker] Connected to sales database")
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	worker := fulfillment.NewWorker(catalogStore, orderStore, producer, cfg.OrderTopic, config.ReviewTopic)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, []string{cfg.OrderTopic, config.ReviewTopic}, cfg.ConsumerGroup)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Println("[Worker] Consumer started. Waiting for orders...")
		if err := consumer.Consume(ctx, worker.HandleMessage); err != nil {
			if ctx.Err() == nil {
				log.Printf("[Worker] Consumer error: %v", err)
			}
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Worker] Shutting down...")
	cancel()
	// Let the loop finish the message it already fetched.
	<-done
}
