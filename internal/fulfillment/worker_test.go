package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-marketplace/internal/catalog"
	"github.com/example/ec-marketplace/internal/sales"
)

const (
	testOrderTopic  = "order-requests"
	testReviewTopic = "review-events"
)

// fakeCatalog applies the same conditional-update rules as the real
// store: the deduction only lands when the version still matches and
// stock suffices, and a seen message key short-circuits to Duplicate.
type fakeCatalog struct {
	products  map[int]*catalog.Product
	processed map[string]bool

	// afterGet runs after a successful GetProduct, before the caller
	// proceeds; used to mutate the row between read and write.
	afterGet func()

	getErr     error
	deductErr  error
	reviewErr  error
	restoreErr error
}

func newFakeCatalog(products ...*catalog.Product) *fakeCatalog {
	fc := &fakeCatalog{
		products:  make(map[int]*catalog.Product),
		processed: make(map[string]bool),
	}
	for _, p := range products {
		fc.products[p.ID] = p
	}
	return fc
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	snapshot := *p
	if f.afterGet != nil {
		f.afterGet()
	}
	return &snapshot, nil
}

func (f *fakeCatalog) DeductStock(ctx context.Context, productID, quantity, version int, messageKey string) (catalog.DeductResult, error) {
	if f.deductErr != nil {
		return 0, f.deductErr
	}
	if f.processed[messageKey] {
		return catalog.DeductDuplicate, nil
	}
	p, ok := f.products[productID]
	if !ok || p.Version != version || p.Stock < quantity {
		return catalog.DeductConflict, nil
	}
	p.Stock -= quantity
	p.Version++
	f.processed[messageKey] = true
	return catalog.DeductApplied, nil
}

func (f *fakeCatalog) RestoreStock(ctx context.Context, productID, quantity int) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	p, ok := f.products[productID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.Stock += quantity
	p.Version++
	return nil
}

func (f *fakeCatalog) AddReviewStats(ctx context.Context, productID, rating int) error {
	if f.reviewErr != nil {
		return f.reviewErr
	}
	p, ok := f.products[productID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.ReviewCount++
	p.RatingSum += rating
	return nil
}

type fakeOrders struct {
	orders    []*sales.Order
	insertErr error
}

func (f *fakeOrders) InsertOrder(ctx context.Context, o *sales.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	o.ID = len(f.orders) + 1
	f.orders = append(f.orders, o)
	return nil
}

type publishedEvent struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	published  []publishedEvent
	publishErr error
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, event any) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func newTestWorker(fc *fakeCatalog, fo *fakeOrders, fp *fakePublisher) *Worker {
	return NewWorker(fc, fo, fp, testOrderTopic, testReviewTopic)
}

func orderMessage(t *testing.T, intent OrderIntent, offset int64) kafka.Message {
	t.Helper()
	data, err := json.Marshal(intent)
	require.NoError(t, err)
	return kafka.Message{Topic: testOrderTopic, Partition: 0, Offset: offset, Value: data}
}

func testProduct() *catalog.Product {
	return &catalog.Product{
		ID:       1,
		Name:     "Mechanical Keyboard",
		Price:    10.00,
		Stock:    5,
		Version:  0,
		SellerID: 42,
	}
}

// ============================================
// Order-intent path
// ============================================

func TestWorker_FulfillOrder_Success(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 3, ShippingAddress: "1 Main St"}
	err := worker.HandleMessage(context.Background(), orderMessage(t, intent, 1))

	require.NoError(t, err)
	assert.Equal(t, 2, fc.products[1].Stock)
	assert.Equal(t, 1, fc.products[1].Version)

	require.Len(t, fo.orders, 1)
	order := fo.orders[0]
	assert.Equal(t, 7, order.UserID)
	assert.Equal(t, 1, order.ProductID)
	assert.Equal(t, "Mechanical Keyboard", order.ProductName)
	assert.Equal(t, 3, order.Quantity)
	assert.Equal(t, sales.StatusPaidCompleted, order.Status)
	assert.Equal(t, 42, order.SellerID)
	assert.Equal(t, 30.00, order.TotalAmount)
	assert.Equal(t, "1 Main St", order.ShippingAddress)
}

func TestWorker_PriceSnapshotAtFulfillmentTime(t *testing.T) {
	product := testProduct()
	fc := newFakeCatalog(product)
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	// Price changed after submission; fulfillment honors the new price.
	product.Price = 12.50

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 2}
	err := worker.HandleMessage(context.Background(), orderMessage(t, intent, 1))

	require.NoError(t, err)
	require.Len(t, fo.orders, 1)
	assert.Equal(t, 25.00, fo.orders[0].TotalAmount)
}

func TestWorker_SalePriceUsedWhenSet(t *testing.T) {
	product := testProduct()
	sale := 8.00
	product.SalePrice = &sale
	fc := newFakeCatalog(product)
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 2}
	err := worker.HandleMessage(context.Background(), orderMessage(t, intent, 1))

	require.NoError(t, err)
	require.Len(t, fo.orders, 1)
	assert.Equal(t, 16.00, fo.orders[0].TotalAmount)
}

func TestWorker_InsufficientStock(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 9}
	result, err := worker.ProcessOrder(context.Background(), intent, "order-requests/0/1")

	require.NoError(t, err)
	assert.False(t, result.Committed)
	assert.Equal(t, ReasonInsufficientStock, result.Reason)
	assert.Empty(t, fo.orders)
	assert.Equal(t, 5, fc.products[1].Stock)
	assert.Equal(t, 0, fc.products[1].Version)
}

func TestWorker_ProductNotFound(t *testing.T) {
	fc := newFakeCatalog()
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	intent := OrderIntent{UserID: 7, ProductID: 99, Quantity: 1}
	result, err := worker.ProcessOrder(context.Background(), intent, "order-requests/0/1")

	require.NoError(t, err)
	assert.Equal(t, ReasonProductNotFound, result.Reason)
	assert.Empty(t, fo.orders)
}

func TestWorker_VersionConflict(t *testing.T) {
	product := testProduct()
	fc := newFakeCatalog(product)
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	// Another replica deducts between this worker's read and write.
	fc.afterGet = func() {
		product.Stock -= 3
		product.Version++
		fc.afterGet = nil
	}

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 3}
	result, err := worker.ProcessOrder(context.Background(), intent, "order-requests/0/1")

	require.NoError(t, err)
	assert.False(t, result.Committed)
	assert.Equal(t, ReasonVersionConflict, result.Reason)
	assert.Empty(t, fo.orders)
	// The concurrent winner's deduction stands untouched.
	assert.Equal(t, 2, product.Stock)
	assert.Equal(t, 1, product.Version)
}

func TestWorker_ConcurrentIntents_AtMostOneSucceeds(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	// Two intents of 3 against stock 5: the second sees the shrunken
	// stock at read time and is rejected before the write.
	first, err := worker.ProcessOrder(context.Background(), OrderIntent{UserID: 7, ProductID: 1, Quantity: 3}, "order-requests/0/1")
	require.NoError(t, err)
	second, err := worker.ProcessOrder(context.Background(), OrderIntent{UserID: 8, ProductID: 1, Quantity: 3}, "order-requests/0/2")
	require.NoError(t, err)

	assert.True(t, first.Committed)
	assert.False(t, second.Committed)
	require.Len(t, fo.orders, 1)
	assert.Equal(t, 2, fc.products[1].Stock)
}

func TestWorker_DuplicateDelivery_DeductsOnce(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	// Quantity 2 leaves enough stock that the redelivery passes the
	// pre-read check and reaches the de-duplication key.
	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 2}
	msg := orderMessage(t, intent, 5)

	require.NoError(t, worker.HandleMessage(context.Background(), msg))
	// Redelivery of the identical message: same topic/partition/offset.
	require.NoError(t, worker.HandleMessage(context.Background(), msg))

	assert.Equal(t, 3, fc.products[1].Stock)
	assert.Equal(t, 1, fc.products[1].Version)
	assert.Len(t, fo.orders, 1)
}

func TestWorker_OrderWriteFailure_PublishesStockRestore(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{insertErr: errors.New("sales db down")}
	fp := &fakePublisher{}
	worker := newTestWorker(fc, fo, fp)

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 3}
	err := worker.HandleMessage(context.Background(), orderMessage(t, intent, 1))

	// The intent is given up on, but a compensation event is in flight.
	require.NoError(t, err)
	assert.Empty(t, fo.orders)
	require.Len(t, fp.published, 1)
	assert.Equal(t, testOrderTopic, fp.published[0].Topic)

	restore, ok := fp.published[0].Event.(StockRestore)
	require.True(t, ok)
	assert.Equal(t, TypeStockRestore, restore.Type)
	assert.Equal(t, 1, restore.ProductID)
	assert.Equal(t, 3, restore.Quantity)

	// Consuming the compensation re-adds the deducted stock.
	data, err := json.Marshal(restore)
	require.NoError(t, err)
	err = worker.HandleMessage(context.Background(), kafka.Message{Topic: testOrderTopic, Offset: 2, Value: data})
	require.NoError(t, err)
	assert.Equal(t, 5, fc.products[1].Stock)
	assert.Equal(t, 2, fc.products[1].Version)
}

func TestWorker_OrderWriteAndPublishFailure_ReturnsError(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{insertErr: errors.New("sales db down")}
	fp := &fakePublisher{publishErr: errors.New("broker down")}
	worker := newTestWorker(fc, fo, fp)

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 3}
	err := worker.HandleMessage(context.Background(), orderMessage(t, intent, 1))

	// Offset must not be committed when even the compensation failed.
	assert.Error(t, err)
}

func TestWorker_StoreError_LeavesOffsetUncommitted(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fc.getErr = errors.New("catalog db unreachable")
	worker := newTestWorker(fc, &fakeOrders{}, &fakePublisher{})

	intent := OrderIntent{UserID: 7, ProductID: 1, Quantity: 1}
	err := worker.HandleMessage(context.Background(), orderMessage(t, intent, 1))

	assert.Error(t, err)
}

// ============================================
// Review path
// ============================================

func TestWorker_ReviewUpdatesAggregates(t *testing.T) {
	product := testProduct()
	fc := newFakeCatalog(product)
	worker := newTestWorker(fc, &fakeOrders{}, &fakePublisher{})

	review := ReviewEvent{Type: TypeReviewAdded, ProductID: 1, Rating: 4}
	data, err := json.Marshal(review)
	require.NoError(t, err)

	err = worker.HandleMessage(context.Background(), kafka.Message{Topic: testReviewTopic, Offset: 1, Value: data})

	require.NoError(t, err)
	assert.Equal(t, 1, product.ReviewCount)
	assert.Equal(t, 4, product.RatingSum)
	assert.Equal(t, 4.0, product.AverageRating())
}

func TestWorker_ReviewForMissingProduct_Discarded(t *testing.T) {
	fc := newFakeCatalog()
	worker := newTestWorker(fc, &fakeOrders{}, &fakePublisher{})

	review := ReviewEvent{Type: TypeReviewAdded, ProductID: 99, Rating: 5}
	data, err := json.Marshal(review)
	require.NoError(t, err)

	err = worker.HandleMessage(context.Background(), kafka.Message{Topic: testReviewTopic, Offset: 1, Value: data})

	assert.NoError(t, err)
}

// ============================================
// Malformed messages
// ============================================

func TestWorker_MalformedMessage_Discarded(t *testing.T) {
	fc := newFakeCatalog(testProduct())
	fo := &fakeOrders{}
	worker := newTestWorker(fc, fo, &fakePublisher{})

	err := worker.HandleMessage(context.Background(), kafka.Message{
		Topic: testOrderTopic, Offset: 1, Value: []byte("not json"),
	})

	assert.NoError(t, err)
	assert.Empty(t, fo.orders)
	assert.Equal(t, 5, fc.products[1].Stock)
}
