package fulfillment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event type tags carried in the JSON payloads.
const (
	TypeReviewAdded  = "ReviewAdded"
	TypeStockRestore = "StockRestore"
)

var ErrUnknownTopic = errors.New("message from unknown topic")

// OrderIntent is the submission payload a customer's order becomes. It
// has no identity of its own; the worker derives all durable state from
// it plus the catalog row it targets.
type OrderIntent struct {
	UserID          int    `json:"UserId"`
	ProductID       int    `json:"ProductId"`
	Quantity        int    `json:"Quantity"`
	ShippingAddress string `json:"ShippingAddress"`
}

// ReviewEvent carries one product review to the aggregate-update path.
type ReviewEvent struct {
	Type      string `json:"Type"`
	ProductID int    `json:"ProductId"`
	Rating    int    `json:"Rating"`
}

// StockRestore compensates a deduction whose order write failed.
type StockRestore struct {
	Type      string `json:"Type"`
	ProductID int    `json:"ProductId"`
	Quantity  int    `json:"Quantity"`
}

type MessageKind int

const (
	KindOrderIntent MessageKind = iota
	KindReview
	KindStockRestore
)

func (k MessageKind) String() string {
	switch k {
	case KindOrderIntent:
		return "OrderIntent"
	case KindReview:
		return "Review"
	case KindStockRestore:
		return "StockRestore"
	}
	return "Unknown"
}

// Envelope is a decoded message: exactly one variant pointer is set,
// matching Kind. Decoding happens once; dispatch switches on Kind.
type Envelope struct {
	Kind    MessageKind
	Order   *OrderIntent
	Review  *ReviewEvent
	Restore *StockRestore
}

// Decoder routes raw messages into envelopes by source topic and the
// payload's type tag.
type Decoder struct {
	OrderTopic  string
	ReviewTopic string
}

// Decode parses one message. A parse or validation failure is a
// malformed-message error; the caller discards those.
func (d Decoder) Decode(topic string, payload []byte) (Envelope, error) {
	switch topic {
	case d.ReviewTopic:
		var review ReviewEvent
		if err := json.Unmarshal(payload, &review); err != nil {
			return Envelope{}, fmt.Errorf("malformed review event: %w", err)
		}
		if review.Type != TypeReviewAdded {
			return Envelope{}, fmt.Errorf("malformed review event: unexpected type %q", review.Type)
		}
		if review.ProductID == 0 {
			return Envelope{}, fmt.Errorf("malformed review event: missing product id")
		}
		return Envelope{Kind: KindReview, Review: &review}, nil

	case d.OrderTopic:
		// Restore events share the order topic; the type tag splits them.
		var tag struct {
			Type string `json:"Type"`
		}
		if err := json.Unmarshal(payload, &tag); err != nil {
			return Envelope{}, fmt.Errorf("malformed message: %w", err)
		}

		if tag.Type == TypeStockRestore {
			var restore StockRestore
			if err := json.Unmarshal(payload, &restore); err != nil {
				return Envelope{}, fmt.Errorf("malformed stock restore: %w", err)
			}
			if restore.ProductID == 0 || restore.Quantity <= 0 {
				return Envelope{}, fmt.Errorf("malformed stock restore: bad product id or quantity")
			}
			return Envelope{Kind: KindStockRestore, Restore: &restore}, nil
		}

		var intent OrderIntent
		if err := json.Unmarshal(payload, &intent); err != nil {
			return Envelope{}, fmt.Errorf("malformed order intent: %w", err)
		}
		if intent.ProductID == 0 || intent.Quantity <= 0 {
			return Envelope{}, fmt.Errorf("malformed order intent: bad product id or quantity")
		}
		return Envelope{Kind: KindOrderIntent, Order: &intent}, nil
	}

	return Envelope{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}
