package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/cart"
	"github.com/example/ec-marketplace/internal/ordering"
)

type CartHandlers struct {
	carts     *cart.Store
	submitter *ordering.Submitter
}

func NewCartHandlers(carts *cart.Store, submitter *ordering.Submitter) *CartHandlers {
	return &CartHandlers{carts: carts, submitter: submitter}
}

func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *CartHandlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var item cart.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if item.ProductID == 0 || item.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "product id and positive quantity are required")
		return
	}

	if err := h.carts.Add(r.Context(), middleware.GetUserID(r.Context()), item); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item added to cart"})
}

// Checkout submits every cart line as an order intent, then clears the
// cart. Batch submission is not atomic; a failure leaves already-sent
// intents in flight and keeps the cart for retry.
func (h *CartHandlers) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ShippingAddress string `json:"ShippingAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}
	if len(items) == 0 {
		respondError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	orderItems := make([]ordering.Item, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, ordering.Item{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			ShippingAddress: req.ShippingAddress,
		})
	}

	if _, err := h.submitter.SubmitBatch(r.Context(), userID, orderItems); err != nil {
		respondError(w, http.StatusBadGateway, "order failed")
		return
	}

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "orders sent but cart not cleared")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Checkout successful"})
}
