package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrProductNotFound = errors.New("product not found")

// DeductResult reports the outcome of one conditional stock deduction.
type DeductResult int

const (
	// DeductApplied means exactly one row was updated and the dedup key recorded.
	DeductApplied DeductResult = iota
	// DeductConflict means the guarded update matched zero rows: the version
	// changed since the read, or stock fell below the requested quantity.
	DeductConflict
	// DeductDuplicate means the message key was already processed.
	DeductDuplicate
)

// Store is the inventory store of record (catalog database).
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// GetProduct fetches one product row.
func (s *Store) GetProduct(ctx context.Context, id int) (*Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p,
		`SELECT id, name, category, description, price, sale_price, stock, version, seller_id, review_count, rating_sum
		 FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeductStock decrements stock and bumps the version in one conditional
// update, guarded by the version read earlier and by remaining stock.
// The message key is recorded in the same transaction so a redelivered
// message resolves to DeductDuplicate instead of deducting twice.
func (s *Store) DeductStock(ctx context.Context, productID, quantity, version int, messageKey string) (DeductResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO processed_messages (message_key) VALUES ($1) ON CONFLICT (message_key) DO NOTHING`,
		messageKey)
	if err != nil {
		return 0, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if inserted == 0 {
		return DeductDuplicate, nil
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1, version = version + 1
		 WHERE id = $2 AND version = $3 AND stock >= $1`,
		quantity, productID, version)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		// Roll back so the dedup key is not burned on a conflict.
		return DeductConflict, nil
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return DeductApplied, nil
}

// RestoreStock re-adds quantity to a product, compensating a deduction
// whose order write never landed. The version still moves forward.
func (s *Store) RestoreStock(ctx context.Context, productID, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + $1, version = version + 1 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AddReviewStats applies one review to the product aggregates. The
// increments run in-place so the database serializes concurrent reviews.
func (s *Store) AddReviewStats(ctx context.Context, productID, rating int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET review_count = review_count + 1, rating_sum = rating_sum + $1 WHERE id = $2`,
		rating, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateProduct inserts a new product and returns its generated id.
func (s *Store) CreateProduct(ctx context.Context, p *Product) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO products (name, category, description, price, sale_price, stock, version, seller_id, review_count, rating_sum)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, 0, 0)
		 RETURNING id`,
		p.Name, p.Category, p.Description, p.Price, p.SalePrice, p.Stock, p.SellerID).Scan(&id)
	return id, err
}

// UpdateProduct updates a seller's own product.
func (s *Store) UpdateProduct(ctx context.Context, p *Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $1, category = $2, description = $3, price = $4, sale_price = $5, stock = $6
		 WHERE id = $7 AND seller_id = $8`,
		p.Name, p.Category, p.Description, p.Price, p.SalePrice, p.Stock, p.ID, p.SellerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a seller's own product.
func (s *Store) DeleteProduct(ctx context.Context, id, sellerID int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND seller_id = $2`, id, sellerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListParams filters and pages the catalog listing.
type ListParams struct {
	SellerID *int
	Category string
	Page     int
	PageSize int
}

// ListProducts returns one page of products with the total count.
func (s *Store) ListProducts(ctx context.Context, params ListParams) (*PagedProducts, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if params.SellerID != nil {
		args = append(args, *params.SellerID)
		where = append(where, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if params.Category != "" {
		args = append(args, params.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM products"+clause, args...); err != nil {
		return nil, err
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(
		`SELECT id, name, category, description, price, sale_price, stock, version, seller_id, review_count, rating_sum
		 FROM products%s ORDER BY id LIMIT $%d OFFSET $%d`,
		clause, len(args)-1, len(args))

	items := []Product{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}

	return &PagedProducts{
		Items:      items,
		TotalCount: total,
		Page:       params.Page,
		PageSize:   params.PageSize,
	}, nil
}
