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

func (h *Handler) sessionWishlist(r *http.Request) (*service.Wishlist, error) {
	ctx := r.Context()
	list := h.wishlists.Session(ctx, SessionID(ctx))

	user := auth.FromContext(ctx)
	current := list.User()
	switch {
	case user != nil && (current == nil || current.ID != user.ID):
		return list, list.SetIdentity(ctx, user)
	case user == nil && current != nil:
		return list, list.SetIdentity(ctx, nil)
	}
	return list, nil
}

type wishlistView struct {
	Items []domain.WishlistItem `json:"items"`
	Count int                   `json:"count"`
}

func viewWishlist(list *service.Wishlist) wishlistView {
	items := list.Items()
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return wishlistView{Items: items, Count: len(items)}
}

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessionWishlist(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "wishlist_unavailable", "could not load wishlist")
		return
	}
	h.respondJSON(w, http.StatusOK, viewWishlist(list))
}

func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, ok := h.findProduct(r, req.ProductID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	list, err := h.sessionWishlist(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "wishlist_unavailable", "could not load wishlist")
		return
	}
	if err := list.Add(r.Context(), product); err != nil {
		h.log.Warn("add to wishlist failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "wishlist_write_failed", "could not add to wishlist")
		return
	}

	h.respondJSON(w, http.StatusCreated, viewWishlist(list))
}

func (h *Handler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessionWishlist(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "wishlist_unavailable", "could not load wishlist")
		return
	}
	if err := list.Remove(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.log.Warn("remove from wishlist failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "wishlist_write_failed", "could not remove from wishlist")
		return
	}

	h.respondJSON(w, http.StatusOK, viewWishlist(list))
}

func (h *Handler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessionWishlist(r)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "wishlist_unavailable", "could not load wishlist")
		return
	}
	if err := list.Clear(r.Context()); err != nil {
		h.log.Warn("clear wishlist failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "wishlist_write_failed", "could not clear wishlist")
		return
	}

	h.respondJSON(w, http.StatusOK, viewWishlist(list))
}
