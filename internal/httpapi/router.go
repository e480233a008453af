// Package httpapi is the chi transport over the storefront services. It
// owns request parsing, status mapping and session plumbing; all semantics
// live in the service layer.
package httpapi

import (
	"net/http"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/checkout"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	catalog   *service.CatalogService
	carts     *service.CartService
	wishlists *service.WishlistService
	coupons   *service.CouponService
	orders    *service.OrderService
	reviews   *service.ReviewService
	checkout  *checkout.Checkout
	log       *zap.Logger
}

func NewHandler(
	catalog *service.CatalogService,
	carts *service.CartService,
	wishlists *service.WishlistService,
	coupons *service.CouponService,
	orders *service.OrderService,
	reviews *service.ReviewService,
	co *checkout.Checkout,
	log *zap.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		carts:     carts,
		wishlists: wishlists,
		coupons:   coupons,
		orders:    orders,
		reviews:   reviews,
		checkout:  co,
		log:       log,
	}
}

func NewRouter(h *Handler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)
	r.Use(IdentityMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/suggest", h.SuggestProducts)
		r.Get("/products/{productID}", h.GetProduct)
		r.Get("/categories", h.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{productID}", h.UpdateCartItem)
			r.Delete("/items/{productID}", h.RemoveCartItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Post("/", h.AddWishlistItem)
			r.Delete("/", h.ClearWishlist)
			r.Delete("/{productID}", h.RemoveWishlistItem)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", h.ListCoupons)
			r.Post("/validate", h.ValidateCoupon)
			r.Post("/apply", h.ApplyCoupon)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{orderID}", h.GetOrder)
			r.Patch("/{orderID}/status", h.UpdateOrderStatus)
		})

		r.Post("/checkout", h.SubmitCheckout)

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{productID}", h.ListReviews)
			r.Post("/{productID}", h.SubmitReview)
			r.Post("/helpful/{reviewID}", h.MarkReviewHelpful)
		})

		r.Route("/search/history", func(r chi.Router) {
			r.Get("/", h.GetSearchHistory)
			r.Post("/", h.RecordSearch)
		})
	})

	return r
}
