package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/checkout"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), auth.FromContext(r.Context()))
	if errors.Is(err, service.ErrNotAuthenticated) {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to view orders")
		return
	}
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "orders_unavailable", "could not load orders")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderID"))
	if errors.Is(err, service.ErrNotAuthenticated) {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to view orders")
		return
	}
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "orders_unavailable", "could not load orders")
		return
	}
	if order == nil {
		h.respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	h.respondJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if auth.FromContext(r.Context()) == nil {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to update orders")
		return
	}

	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		h.respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), req.Status); err != nil {
		h.log.Warn("order status update failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "order_write_failed", "could not update order status")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// SubmitCheckout turns the session cart into an order and a WhatsApp link.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	var contact checkout.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.sessionCart(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "could not load cart")
		return
	}

	result, err := h.checkout.Submit(r.Context(), cart, contact)
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		h.respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrNotAuthenticated):
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to place an order")
	case errors.Is(err, checkout.ErrNameTooShort),
		errors.Is(err, checkout.ErrInvalidEmail),
		errors.Is(err, checkout.ErrInvalidPhone):
		h.respondError(w, http.StatusBadRequest, "invalid_contact", err.Error())
	case err != nil:
		h.log.Warn("checkout failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "checkout_failed", "could not place order")
	default:
		h.respondJSON(w, http.StatusCreated, result)
	}
}
