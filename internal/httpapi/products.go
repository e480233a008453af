package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/go-chi/chi/v5"
)

// ListProducts serves the filtered catalog view. Query params: search,
// category, min_price, max_price, sort.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Load(r.Context())
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "could not load products")
		return
	}

	q := service.Query{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Sort:     service.SortKey(r.URL.Query().Get("sort")),
	}
	if v := r.URL.Query().Get("min_price"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_min_price", "min_price must be a number")
			return
		}
		q.MinPrice = min
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		max, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_max_price", "max_price must be a number")
			return
		}
		q.MaxPrice = max
	}

	filtered := h.catalog.Filter(products, q)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": filtered,
		"count":    len(filtered),
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Load(r.Context())
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "could not load products")
		return
	}

	productID := chi.URLParam(r, "productID")
	for i := range products {
		if products[i].ID == productID {
			h.respondJSON(w, http.StatusOK, products[i])
			return
		}
	}
	h.respondError(w, http.StatusNotFound, "not_found", "product not found")
}

func (h *Handler) SuggestProducts(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.catalog.Suggest(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "could not load suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []domain.Product{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "could not load categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *Handler) GetSearchHistory(w http.ResponseWriter, r *http.Request) {
	history := h.catalog.SearchHistory(r.Context(), SessionID(r.Context()))
	if history == nil {
		history = []string{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

func (h *Handler) RecordSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Term == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_term", "term is required")
		return
	}

	h.catalog.RecordSearch(r.Context(), SessionID(r.Context()), req.Term)
	w.WriteHeader(http.StatusNoContent)
}
