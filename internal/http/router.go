package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bkode/storefront/internal/auth"
	"github.com/bkode/storefront/internal/metrics"
)

type RouterConfig struct {
	Verifier       auth.Verifier
	Admins         auth.AdminSet
	RequestTimeout time.Duration

	Products *ProductsHandler
	Cart     *CartHandler
	Users    *UsersHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
	Orders   *OrdersHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	requireAuth := auth.Middleware(cfg.Verifier)
	requireAdmin := auth.RequireAdmin(cfg.Admins)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.ListProducts)
			r.Get("/{product_id}", cfg.Products.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", cfg.Products.CreateProduct)
				r.Put("/{product_id}", cfg.Products.UpdateProduct)
				r.Delete("/{product_id}", cfg.Products.DeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.Cart.GetCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
		})

		r.With(requireAuth).Post("/users/me", cfg.Users.GetOrCreate)
		r.With(requireAuth).Post("/checkout", cfg.Checkout.CreateSession)

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.Orders.ListOrders)
			r.Get("/{order_id}", cfg.Orders.GetOrder)
		})

		// The webhook authenticates with its signature, not a session.
		r.Post("/webhook/stripe", cfg.Webhook.HandleEvent)
	})

	return r
}
