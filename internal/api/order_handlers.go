package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/fulfillment"
	"github.com/example/ec-marketplace/internal/ordering"
	"github.com/example/ec-marketplace/internal/sales"
)

// ReviewPublisher appends review events to the message channel.
type ReviewPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// OrderHandlers serves order submission (producer side of the pipeline)
// plus order history, feedback and the seller dashboard.
type OrderHandlers struct {
	submitter   *ordering.Submitter
	orders      *sales.Store
	publisher   ReviewPublisher
	reviewTopic string
}

func NewOrderHandlers(submitter *ordering.Submitter, orders *sales.Store, publisher ReviewPublisher, reviewTopic string) *OrderHandlers {
	return &OrderHandlers{
		submitter:   submitter,
		orders:      orders,
		publisher:   publisher,
		reviewTopic: reviewTopic,
	}
}

// CreateOrder appends one order intent. A 200 means the broker accepted
// the message, not that the order has been fulfilled.
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var item ordering.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.submitter.Submit(r.Context(), userID, item); err != nil {
		if errors.Is(err, ordering.ErrInvalidItem) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"Status": "Order Placed"})
}

// CreateOrderBatch appends one intent per item (cart checkout flow).
// Appends are independent; earlier items stay submitted on failure.
func (h *OrderHandlers) CreateOrderBatch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var items []ordering.Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sent, err := h.submitter.SubmitBatch(r.Context(), userID, items)
	if err != nil {
		if errors.Is(err, ordering.ErrInvalidItem) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"Status": "Batch Sent", "Count": sent})
}

// GetOrderHistory returns a page of the caller's orders.
func (h *OrderHandlers) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var year *int
	if y := queryInt(r, "year", 0); y != 0 {
		year = &y
	}

	page, err := h.orders.OrdersByUser(r.Context(), userID,
		queryInt(r, "page", 1), queryInt(r, "pageSize", 5), year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetOrderDetails returns one order; callers only see their own orders.
func (h *OrderHandlers) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := extractIntParam(r.URL.Path, "/orders/")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	detail, err := h.orders.OrderDetail(r.Context(), id)
	if errors.Is(err, sales.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	if detail.UserID != middleware.GetUserID(r.Context()) && !isAdmin(r) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// SubmitFeedback stores a rating on the order, then publishes a review
// event so the worker updates the product's aggregates asynchronously.
func (h *OrderHandlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := extractIntParam(r.URL.Path, "/orders/")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		Rating   int    `json:"Rating"`
		Feedback string `json:"Feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	productID, err := h.orders.AddFeedback(r.Context(), id, req.Rating, req.Feedback)
	if errors.Is(err, sales.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}

	event := fulfillment.ReviewEvent{
		Type:      fulfillment.TypeReviewAdded,
		ProductID: productID,
		Rating:    req.Rating,
	}
	if err := h.publisher.Publish(r.Context(), h.reviewTopic, "", event); err != nil {
		respondError(w, http.StatusBadGateway, "feedback saved but review event delivery failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"Message": "Feedback submitted successfully"})
}

// GetDashboard aggregates sales stats, scoped to the calling seller
// unless they are an admin.
func (h *OrderHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var sellerID *int
	if !isAdmin(r) {
		id := middleware.GetUserID(r.Context())
		sellerID = &id
	}

	stats, err := h.orders.DashboardStats(r.Context(), sellerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
