package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/ec-marketplace/internal/api/middleware"
	"github.com/example/ec-marketplace/internal/auth"
)

type RouterConfig struct {
	AuthHandlers    *AuthHandlers
	ProductHandlers *ProductHandlers
	OrderHandlers   *OrderHandlers
	CartHandlers    *CartHandlers
	PaymentHandlers *PaymentHandlers
	JWTService      *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authRequired := middleware.AuthMiddleware(cfg.JWTService)
	sellerOnly := middleware.RequireRole(auth.RoleSeller, auth.RoleAdmin)

	// Auth
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cfg.AuthHandlers.Register(w, r)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cfg.AuthHandlers.Login(w, r)
	})

	// Products (reads are public, writes are seller-scoped)
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.ProductHandlers.ListProducts(w, r)
		case http.MethodPost:
			authRequired(sellerOnly(http.HandlerFunc(cfg.ProductHandlers.CreateProduct))).ServeHTTP(w, r)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.ProductHandlers.GetProduct(w, r)
		case http.MethodPut:
			authRequired(sellerOnly(http.HandlerFunc(cfg.ProductHandlers.UpdateProduct))).ServeHTTP(w, r)
		case http.MethodDelete:
			authRequired(sellerOnly(http.HandlerFunc(cfg.ProductHandlers.DeleteProduct))).ServeHTTP(w, r)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// Cart
	mux.Handle("/cart", authRequired(route(map[string]http.HandlerFunc{
		http.MethodGet: cfg.CartHandlers.GetCart,
	})))
	mux.Handle("/cart/items", authRequired(route(map[string]http.HandlerFunc{
		http.MethodPost: cfg.CartHandlers.AddToCart,
	})))
	mux.Handle("/cart/checkout", authRequired(route(map[string]http.HandlerFunc{
		http.MethodPost: cfg.CartHandlers.Checkout,
	})))

	// Orders
	mux.Handle("/orders", authRequired(route(map[string]http.HandlerFunc{
		http.MethodGet:  cfg.OrderHandlers.GetOrderHistory,
		http.MethodPost: cfg.OrderHandlers.CreateOrder,
	})))
	mux.Handle("/orders/batch", authRequired(route(map[string]http.HandlerFunc{
		http.MethodPost: cfg.OrderHandlers.CreateOrderBatch,
	})))
	mux.Handle("/orders/", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/feedback") && r.Method == http.MethodPost:
			cfg.OrderHandlers.SubmitFeedback(w, r)
		case r.Method == http.MethodGet:
			cfg.OrderHandlers.GetOrderDetails(w, r)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})))

	// Dashboard
	mux.Handle("/dashboard", authRequired(sellerOnly(route(map[string]http.HandlerFunc{
		http.MethodGet: cfg.OrderHandlers.GetDashboard,
	}))))

	// Payment (mock)
	mux.Handle("/payment", authRequired(route(map[string]http.HandlerFunc{
		http.MethodPost: cfg.PaymentHandlers.ProcessPayment,
	})))

	return withLogging(mux)
}

// route dispatches by HTTP method.
func route(methods map[string]http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := methods[r.Method]; ok {
			handler(w, r)
			return
		}
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
