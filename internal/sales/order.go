package sales

import "time"

// StatusPaidCompleted is the only terminal status the fulfillment path
// writes; failed fulfillments never create an order row at all.
const StatusPaidCompleted = "Paid & Completed"

// Order is the durable sales record created once per fulfilled intent.
// ProductName, SellerID and the unit price behind TotalAmount are
// snapshotted from the catalog at fulfillment time.
type Order struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"user_id"`
	ProductID       int       `db:"product_id" json:"product_id"`
	ProductName     string    `db:"product_name" json:"product_name"`
	Quantity        int       `db:"quantity" json:"quantity"`
	Status          string    `db:"status" json:"status"`
	SellerID        int       `db:"seller_id" json:"seller_id"`
	TotalAmount     float64   `db:"total_amount" json:"total_amount"`
	ShippingAddress string    `db:"shipping_address" json:"shipping_address"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	Rating          *int      `db:"rating" json:"rating,omitempty"`
	Feedback        *string   `db:"feedback" json:"feedback,omitempty"`
}

// OrderDetail is an order joined with its seller's contact info.
type OrderDetail struct {
	Order
	SellerName  *string `db:"seller_name" json:"seller_name,omitempty"`
	SellerEmail *string `db:"seller_email" json:"seller_email,omitempty"`
}

// PagedOrders is one page of a user's order history.
type PagedOrders struct {
	Orders     []Order `json:"orders"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

// User is an account in the marketplace. Sellers are users with the
// Seller role; orders reference them through seller_id.
type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TopProduct is a dashboard aggregate row.
type TopProduct struct {
	Name    string  `db:"name" json:"name"`
	Sales   int     `db:"sales" json:"sales"`
	Revenue float64 `db:"revenue" json:"revenue"`
}

// RecentOrder is a dashboard listing row.
type RecentOrder struct {
	ID      int     `db:"id" json:"id"`
	UserID  int     `db:"user_id" json:"user_id"`
	Product string  `db:"product" json:"product"`
	Amount  float64 `db:"amount" json:"amount"`
	Status  string  `db:"status" json:"status"`
}

// DashboardStats aggregates a seller's (or the whole marketplace's) sales.
type DashboardStats struct {
	TotalRevenue float64       `json:"total_revenue"`
	TotalOrders  int           `json:"total_orders"`
	TopProducts  []TopProduct  `json:"top_products"`
	RecentOrders []RecentOrder `json:"recent_orders"`
}
