package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/payment"
)

type PaymentHandlers struct{}

func NewPaymentHandlers() *PaymentHandlers {
	return &PaymentHandlers{}
}

// ProcessPayment runs the mock authorization.
func (h *PaymentHandlers) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req payment.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = middleware.GetUserID(r.Context())

	authz, err := payment.Authorize(req)
	if errors.Is(err, payment.ErrInvalidAmount) || errors.Is(err, payment.ErrDeclined) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "payment processing failed")
		return
	}
	respondJSON(w, http.StatusOK, authz)
}
