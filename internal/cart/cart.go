package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Carts expire after 30 days of inactivity.
const cartTTL = 30 * 24 * time.Hour

// Item is one cart line. The product name is kept for display only.
type Item struct {
	ProductID int    `json:"ProductId"`
	Product   string `json:"Product"`
	Quantity  int    `json:"Quantity"`
}

// Store keeps carts in Redis as one JSON value per user.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func cartKey(userID int) string {
	return fmt.Sprintf("cart:%d", userID)
}

// Get returns the user's cart, empty if none exists.
func (s *Store) Get(ctx context.Context, userID int) ([]Item, error) {
	data, err := s.rdb.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add merges an item into the cart and resets the expiry.
func (s *Store) Add(ctx context.Context, userID int, item Item) error {
	items, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	items = MergeItem(items, item)

	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(userID), data, cartTTL).Err()
}

// Clear deletes the user's cart.
func (s *Store) Clear(ctx context.Context, userID int) error {
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}

// MergeItem adds the item's quantity onto an existing line for the same
// product, or appends a new line.
func MergeItem(items []Item, item Item) []Item {
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}
