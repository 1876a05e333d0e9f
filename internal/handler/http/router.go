package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/metrics"
	"github.com/vasiliy-maslov/shop-service/internal/order"
	"github.com/vasiliy-maslov/shop-service/internal/product"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Users    user.Service
	Products product.Service
	Carts    cart.Service
	Orders   order.Service
	Placer   OrderPlacer
	Tokens   TokenVerifier
	// DB is optional; when set /health also pings it.
	DB Pinger
}

func NewRouter(deps Dependencies) *chi.Mux {
	users := NewUserHandler(deps.Users)
	products := NewProductHandler(deps.Products)
	carts := NewCartHandler(deps.Carts)
	orders := NewOrderHandler(deps.Orders, deps.Placer)
	authenticate := Authenticate(deps.Tokens)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", healthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/signup", users.handleSignup)
		r.Post("/login", users.handleLogin)
		r.Get("/searchAndFilterProducts", products.handleSearch)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/profile", users.handleProfile)
			r.Get("/getAllProducts", products.handleGetAll)
			r.Get("/getProductById/{id}", products.handleGetByID)

			r.Post("/addToCart", carts.handleAdd)
			r.Put("/updateCart", carts.handleUpdate)
			r.Get("/getCart", carts.handleList)
			r.Delete("/deleteCartItemId/{id}", carts.handleRemove)
			r.Delete("/clearCart", carts.handleClear)

			r.Post("/placeOrderCart", orders.handlePlace)
			r.Get("/getUserOrders", orders.handleUserOrders)
			r.Get("/getOrderById/{id}", orders.handleUserOrder)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/getAllProducts", products.handleGetAll)
		r.Get("/getProductById/{id}", products.handleGetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, RequireAdmin)

			r.Post("/addProduct", products.handleCreate)
			r.Put("/editProduct/{id}", products.handleUpdate)
			r.Delete("/deleteProduct/{id}", products.handleDelete)
			r.Put("/updateOrderStatus/{id}", orders.handleUpdateStatus)
			r.Get("/getAllOrders", orders.handleAllOrders)
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	}
}
