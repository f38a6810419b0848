package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/auth"
	"github.com/example/ec-marketplace/internal/catalog"
)

type ProductHandlers struct {
	products *catalog.Store
}

func NewProductHandlers(products *catalog.Store) *ProductHandlers {
	return &ProductHandlers{products: products}
}

// ListProducts returns a page of the catalog, optionally filtered by
// seller or category.
func (h *ProductHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if sellerID := queryInt(r, "sellerId", 0); sellerID != 0 {
		params.SellerID = &sellerID
	}

	page, err := h.products.ListProducts(r.Context(), params)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ProductHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := extractIntParam(r.URL.Path, "/products/")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// CreateProduct adds a product owned by the calling seller.
func (h *ProductHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" || p.Price <= 0 || p.Stock < 0 {
		respondError(w, http.StatusBadRequest, "name, positive price and non-negative stock are required")
		return
	}

	p.SellerID = middleware.GetUserID(r.Context())

	id, err := h.products.CreateProduct(r.Context(), &p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	p.ID = id

	respondJSON(w, http.StatusCreated, p)
}

// UpdateProduct updates a product; the SQL scopes the write to the
// calling seller's own rows.
func (h *ProductHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := extractIntParam(r.URL.Path, "/products/")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = id
	p.SellerID = middleware.GetUserID(r.Context())

	err := h.products.UpdateProduct(r.Context(), &p)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

func (h *ProductHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := extractIntParam(r.URL.Path, "/products/")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	err := h.products.DeleteProduct(r.Context(), id, middleware.GetUserID(r.Context()))
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	return ok && claims.Role == auth.RoleAdmin
}
