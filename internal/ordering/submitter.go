package ordering

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/example/ec-marketplace/internal/fulfillment"
)

var ErrInvalidItem = errors.New("order item requires a product id and a positive quantity")

// Publisher appends order intents to the message channel.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Item is one order line as submitted by a client. The user identity is
// never taken from the payload; it comes from the verified caller.
type Item struct {
	ProductID       int    `json:"ProductId"`
	Quantity        int    `json:"Quantity"`
	ShippingAddress string `json:"ShippingAddress"`
}

// Submitter turns authenticated order requests into order-intent
// messages. Success means the broker acknowledged the append; fulfillment
// happens later and its outcome never reaches the submitting call.
type Submitter struct {
	publisher  Publisher
	orderTopic string
}

func NewSubmitter(publisher Publisher, orderTopic string) *Submitter {
	return &Submitter{publisher: publisher, orderTopic: orderTopic}
}

// Submit appends one order intent for the given user.
func (s *Submitter) Submit(ctx context.Context, userID int, item Item) error {
	if item.ProductID == 0 || item.Quantity <= 0 {
		return ErrInvalidItem
	}

	intent := fulfillment.OrderIntent{
		UserID:          userID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		ShippingAddress: item.ShippingAddress,
	}
	if err := s.publisher.Publish(ctx, s.orderTopic, strconv.Itoa(item.ProductID), intent); err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	return nil
}

// SubmitBatch appends one intent per item. Appends are independent and
// not rolled back: a failure aborts the loop and earlier items stay
// submitted. Returns how many intents were appended.
func (s *Submitter) SubmitBatch(ctx context.Context, userID int, items []Item) (int, error) {
	for i, item := range items {
		if err := s.Submit(ctx, userID, item); err != nil {
			return i, err
		}
	}
	log.Printf("[Ordering] Batch processed: %d orders sent", len(items))
	return len(items), nil
}
