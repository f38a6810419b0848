package catalog

// Product is the inventory record for one sellable item. Stock and Version
// are only mutated together: every successful deduction or restore bumps
// Version by one, which is what the optimistic-concurrency check keys on.
type Product struct {
	ID          int      `db:"id" json:"id"`
	Name        string   `db:"name" json:"name"`
	Category    string   `db:"category" json:"category"`
	Description string   `db:"description" json:"description"`
	Price       float64  `db:"price" json:"price"`
	SalePrice   *float64 `db:"sale_price" json:"sale_price,omitempty"`
	Stock       int      `db:"stock" json:"stock"`
	Version     int      `db:"version" json:"version"`
	SellerID    int      `db:"seller_id" json:"seller_id"`
	ReviewCount int      `db:"review_count" json:"review_count"`
	RatingSum   int      `db:"rating_sum" json:"rating_sum"`
}

// EffectivePrice returns the sale price when one is set.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// AverageRating is derived, never stored.
func (p *Product) AverageRating() float64 {
	if p.ReviewCount == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.ReviewCount)
}

// PagedProducts is a paginated catalog listing.
type PagedProducts struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
