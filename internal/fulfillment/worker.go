package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/example/ec-marketplace/internal/catalog"
	"github.com/example/ec-marketplace/internal/sales"
)

// CatalogStore is the inventory store the worker deducts from.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int) (*catalog.Product, error)
	DeductStock(ctx context.Context, productID, quantity, version int, messageKey string) (catalog.DeductResult, error)
	RestoreStock(ctx context.Context, productID, quantity int) error
	AddReviewStats(ctx context.Context, productID, rating int) error
}

// OrderStore is the sales store the worker writes finalized orders to.
type OrderStore interface {
	InsertOrder(ctx context.Context, o *sales.Order) error
}

// Publisher appends events back to the message channel, used for the
// stock-restore compensation path.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Worker consumes order-intent and review messages and applies them to
// the two stores. All handles are injected; the worker owns no globals.
type Worker struct {
	catalog   CatalogStore
	orders    OrderStore
	publisher Publisher
	decoder   Decoder
}

func NewWorker(catalogStore CatalogStore, orderStore OrderStore, publisher Publisher, orderTopic, reviewTopic string) *Worker {
	return &Worker{
		catalog:   catalogStore,
		orders:    orderStore,
		publisher: publisher,
		decoder:   Decoder{OrderTopic: orderTopic, ReviewTopic: reviewTopic},
	}
}

// HandleMessage processes one consumed message to completion. A nil
// return commits the offset; malformed payloads and rejections are
// discarded (logged, committed, never retried). Only store failures
// return an error, leaving the offset uncommitted for redelivery.
func (w *Worker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	env, err := w.decoder.Decode(msg.Topic, msg.Value)
	if err != nil {
		log.Printf("[Worker] Discarding message at %s: %v", messageKey(msg), err)
		return nil
	}

	switch env.Kind {
	case KindOrderIntent:
		result, err := w.ProcessOrder(ctx, *env.Order, messageKey(msg))
		if err != nil {
			return err
		}
		if result.Committed {
			log.Printf("[Worker] Order %d fulfilled: product %d x%d, total %.2f",
				result.Order.ID, result.Order.ProductID, result.Order.Quantity, result.Order.TotalAmount)
		} else {
			log.Printf("[Worker] Order intent discarded (product %d x%d): %s",
				env.Order.ProductID, env.Order.Quantity, result.Reason)
		}
		return nil

	case KindReview:
		err := w.catalog.AddReviewStats(ctx, env.Review.ProductID, env.Review.Rating)
		if errors.Is(err, catalog.ErrProductNotFound) {
			log.Printf("[Worker] Review discarded: product %d not found", env.Review.ProductID)
			return nil
		}
		if err != nil {
			return err
		}
		log.Printf("[Worker] Review applied: product %d rating %d", env.Review.ProductID, env.Review.Rating)
		return nil

	case KindStockRestore:
		err := w.catalog.RestoreStock(ctx, env.Restore.ProductID, env.Restore.Quantity)
		if errors.Is(err, catalog.ErrProductNotFound) {
			log.Printf("[Worker] Stock restore discarded: product %d not found", env.Restore.ProductID)
			return nil
		}
		if err != nil {
			return err
		}
		log.Printf("[Worker] Stock restored: product %d +%d", env.Restore.ProductID, env.Restore.Quantity)
		return nil
	}

	log.Printf("[Worker] Discarding message of unknown kind at %s", messageKey(msg))
	return nil
}

// ProcessOrder runs the stock-deduction and order-write path for one
// intent. messageKey de-duplicates redeliveries of the same message.
func (w *Worker) ProcessOrder(ctx context.Context, intent OrderIntent, messageKey string) (Result, error) {
	product, err := w.catalog.GetProduct(ctx, intent.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return Rejected(ReasonProductNotFound), nil
	}
	if err != nil {
		return Result{}, err
	}

	if product.Stock < intent.Quantity {
		return Rejected(ReasonInsufficientStock), nil
	}

	deduct, err := w.catalog.DeductStock(ctx, product.ID, intent.Quantity, product.Version, messageKey)
	if err != nil {
		return Result{}, err
	}
	switch deduct {
	case catalog.DeductDuplicate:
		return Rejected(ReasonDuplicate), nil
	case catalog.DeductConflict:
		return Rejected(ReasonVersionConflict), nil
	}

	// Price and seller are snapshotted from the read above, so a price
	// change between submission and fulfillment lands here.
	order := &sales.Order{
		UserID:          intent.UserID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        intent.Quantity,
		Status:          sales.StatusPaidCompleted,
		SellerID:        product.SellerID,
		TotalAmount:     product.EffectivePrice() * float64(intent.Quantity),
		ShippingAddress: intent.ShippingAddress,
	}

	if err := w.orders.InsertOrder(ctx, order); err != nil {
		// Stock is already deducted with no order to show for it.
		// Publish a compensating restore before giving up on the intent.
		log.Printf("[Worker] Order write failed after deduction (product %d x%d): %v",
			product.ID, intent.Quantity, err)

		restore := StockRestore{
			Type:      TypeStockRestore,
			ProductID: product.ID,
			Quantity:  intent.Quantity,
		}
		if pubErr := w.publisher.Publish(ctx, w.decoder.OrderTopic, strconv.Itoa(product.ID), restore); pubErr != nil {
			log.Printf("[Worker] FAILED to publish stock restore for product %d: %v (ghost deduction)",
				product.ID, pubErr)
			return Result{}, err
		}
		return Rejected(ReasonOrderWriteFailed), nil
	}

	return Committed(order), nil
}

// messageKey is the de-duplication key for one delivery: a redelivered
// message carries the same topic, partition and offset.
func messageKey(msg kafka.Message) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}
