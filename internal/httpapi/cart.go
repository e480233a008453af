package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// sessionCart binds the session's cart to the request's identity, switching
// the cart between anonymous and authenticated modes when they drifted
// apart (login or logout since the last request).
func (h *Handler) sessionCart(r *http.Request) (*service.Cart, error) {
	ctx := r.Context()
	cart := h.carts.Session(ctx, SessionID(ctx))

	user := auth.FromContext(ctx)
	current := cart.User()
	switch {
	case user != nil && (current == nil || current.ID != user.ID):
		return cart, cart.SetIdentity(ctx, user)
	case user == nil && current != nil:
		return cart, cart.SetIdentity(ctx, nil)
	}
	return cart, nil
}

type cartView struct {
	Items         []domain.CartItem `json:"items"`
	Total         float64           `json:"total"`
	ItemCount     int               `json:"item_count"`
	Authenticated bool              `json:"authenticated"`
	Phase         string            `json:"phase"`
}

func viewCart(cart *service.Cart) cartView {
	items := cart.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartView{
		Items:         items,
		Total:         cart.Total(),
		ItemCount:     cart.ItemCount(),
		Authenticated: cart.Authenticated(),
		Phase:         cart.Phase().String(),
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.sessionCart(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "could not load cart")
		return
	}
	h.respondJSON(w, http.StatusOK, viewCart(cart))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		h.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, ok := h.findProduct(r, req.ProductID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	cart, err := h.sessionCart(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "could not load cart")
		return
	}
	if err := cart.AddToCart(r.Context(), product, req.Quantity); err != nil {
		h.log.Warn("add to cart failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "cart_write_failed", "could not add item to cart")
		return
	}

	h.respondJSON(w, http.StatusCreated, viewCart(cart))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		h.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	cart, err := h.sessionCart(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "could not load cart")
		return
	}
	if err := cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity); err != nil {
		h.log.Warn("update cart item failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "cart_write_failed", "could not update cart item")
		return
	}

	h.respondJSON(w, http.StatusOK, viewCart(cart))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.sessionCart(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "could not load cart")
		return
	}
	if err := cart.RemoveFromCart(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.log.Warn("remove cart item failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "cart_write_failed", "could not remove cart item")
		return
	}

	h.respondJSON(w, http.StatusOK, viewCart(cart))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.sessionCart(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "could not load cart")
		return
	}
	if err := cart.Clear(r.Context()); err != nil {
		h.log.Warn("clear cart failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "cart_write_failed", "could not clear cart")
		return
	}

	h.respondJSON(w, http.StatusOK, viewCart(cart))
}

// findProduct resolves a catalog product for the value copy carried by cart
// and wishlist items.
func (h *Handler) findProduct(r *http.Request, productID string) (domain.Product, bool) {
	products, err := h.catalog.Load(r.Context())
	if err != nil {
		return domain.Product{}, false
	}
	for i := range products {
		if products[i].ID == productID {
			return products[i], true
		}
	}
	return domain.Product{}, false
}
