package fulfillment

import "github.com/example/ec-marketplace/internal/sales"

// RejectReason says why a message was discarded. Rejections are terminal:
// the offset is committed and the message is never retried.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonProductNotFound
	ReasonInsufficientStock
	ReasonVersionConflict
	ReasonDuplicate
	ReasonOrderWriteFailed
)

func (r RejectReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonProductNotFound:
		return "product not found"
	case ReasonInsufficientStock:
		return "insufficient stock"
	case ReasonVersionConflict:
		return "concurrency conflict"
	case ReasonDuplicate:
		return "duplicate delivery"
	case ReasonOrderWriteFailed:
		return "order write failed"
	}
	return "unknown"
}

// Result is the explicit outcome of processing one message. Store and
// connectivity failures are returned as errors instead, so the consumer
// leaves the offset uncommitted and the broker redelivers.
type Result struct {
	Committed bool
	Reason    RejectReason
	Order     *sales.Order // set when an order-intent commit created a row
}

func Committed(order *sales.Order) Result {
	return Result{Committed: true, Order: order}
}

func Rejected(reason RejectReason) Result {
	return Result{Reason: reason}
}
