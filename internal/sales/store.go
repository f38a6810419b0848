package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
)

// Store is the sales store of record (orders and users).
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// InsertOrder writes one finalized order and fills in its generated id
// and creation time.
func (s *Store) InsertOrder(ctx context.Context, o *Order) error {
	return s.db.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, product_id, product_name, quantity, status, seller_id, total_amount, shipping_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id, created_at`,
		o.UserID, o.ProductID, o.ProductName, o.Quantity, o.Status,
		o.SellerID, o.TotalAmount, o.ShippingAddress,
	).Scan(&o.ID, &o.CreatedAt)
}

// OrdersByUser returns one page of a user's order history, newest first,
// optionally filtered to one calendar year.
func (s *Store) OrdersByUser(ctx context.Context, userID, page, pageSize int, year *int) (*PagedOrders, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 5
	}

	where := "WHERE user_id = $1"
	args := []any{userID}
	if year != nil {
		args = append(args, *year)
		where += " AND EXTRACT(YEAR FROM created_at) = $2"
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders "+where, args...); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, product_id, product_name, quantity, status, seller_id, total_amount, shipping_address, created_at, rating, feedback
		 FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	orders := []Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}

	return &PagedOrders{Orders: orders, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

// OrderDetail fetches one order joined with its seller's contact info.
func (s *Store) OrderDetail(ctx context.Context, id int) (*OrderDetail, error) {
	var d OrderDetail
	err := s.db.GetContext(ctx, &d,
		`SELECT o.id, o.user_id, o.product_id, o.product_name, o.quantity, o.status, o.seller_id,
		        o.total_amount, o.shipping_address, o.created_at, o.rating, o.feedback,
		        u.name AS seller_name, u.email AS seller_email
		 FROM orders o
		 LEFT JOIN users u ON o.seller_id = u.id
		 WHERE o.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// AddFeedback stores a rating and comment on an order and returns the
// product id so the caller can publish the review event.
func (s *Store) AddFeedback(ctx context.Context, orderID, rating int, feedback string) (int, error) {
	var productID int
	err := s.db.QueryRowContext(ctx,
		`UPDATE orders SET rating = $1, feedback = $2 WHERE id = $3 RETURNING product_id`,
		rating, feedback, orderID).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrOrderNotFound
	}
	if err != nil {
		return 0, err
	}
	return productID, nil
}

// DashboardStats aggregates revenue, order count, top products and recent
// orders, scoped to one seller when sellerID is set.
func (s *Store) DashboardStats(ctx context.Context, sellerID *int) (*DashboardStats, error) {
	where := ""
	args := []any{}
	if sellerID != nil {
		where = " WHERE seller_id = $1"
		args = append(args, *sellerID)
	}

	stats := &DashboardStats{}

	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM orders`+where, args...)
	if err := row.Scan(&stats.TotalRevenue, &stats.TotalOrders); err != nil {
		return nil, err
	}

	stats.TopProducts = []TopProduct{}
	err := s.db.SelectContext(ctx, &stats.TopProducts,
		`SELECT product_name AS name, SUM(quantity) AS sales, COALESCE(SUM(total_amount), 0) AS revenue
		 FROM orders`+where+`
		 GROUP BY product_name
		 ORDER BY revenue DESC
		 LIMIT 5`, args...)
	if err != nil {
		return nil, err
	}

	stats.RecentOrders = []RecentOrder{}
	err = s.db.SelectContext(ctx, &stats.RecentOrders,
		`SELECT id, user_id, product_name AS product, total_amount AS amount, status
		 FROM orders`+where+` ORDER BY created_at DESC LIMIT 5`, args...)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// CreateUser inserts a new account and fills in its generated id.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, created_at`,
		u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

// GetUserByEmail fetches an account for login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
