package payment

import (
	"errors"
	"log"

	"github.com/google/uuid"
)

// Mock card limit: anything above is declined.
const chargeLimit = 5000

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrDeclined      = errors.New("payment declined: amount exceeds card limit")
)

// Request is one payment authorization attempt.
type Request struct {
	UserID int     `json:"UserId"`
	Amount float64 `json:"Amount"`
}

// Authorization is a successful mock authorization.
type Authorization struct {
	Status        string `json:"Status"`
	TransactionID string `json:"TransactionId"`
	Message       string `json:"Message"`
}

// Authorize applies the mock rules: non-positive amounts are invalid,
// amounts over the limit are declined, everything else is authorized.
func Authorize(req Request) (*Authorization, error) {
	log.Printf("[Payment] Processing payment of $%.2f for user %d", req.Amount, req.UserID)

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Amount > chargeLimit {
		log.Printf("[Payment] Declined: exceeds limit")
		return nil, ErrDeclined
	}

	return &Authorization{
		Status:        "Authorized",
		TransactionID: uuid.New().String(),
		Message:       "Payment successful",
	}, nil
}
