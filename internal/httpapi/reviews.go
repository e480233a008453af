package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if err := h.reviews.Refresh(r.Context(), productID); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "reviews_unavailable", "could not load reviews")
		return
	}

	reviews := h.reviews.Reviews(productID)
	if reviews == nil {
		reviews = []domain.ProductReview{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"summary": h.reviews.Summary(productID),
	})
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  int    `json:"rating"`
		Title   string `json:"title"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	productID := chi.URLParam(r, "productID")
	err := h.reviews.Submit(r.Context(), auth.FromContext(r.Context()), productID, req.Rating, req.Title, req.Comment)
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to review products")
	case errors.Is(err, service.ErrInvalidRating):
		h.respondError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
	case err != nil:
		h.log.Warn("review submit failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "review_write_failed", "could not submit review")
	default:
		h.respondJSON(w, http.StatusCreated, map[string]interface{}{
			"reviews": h.reviews.Reviews(productID),
			"summary": h.reviews.Summary(productID),
		})
	}
}

func (h *Handler) MarkReviewHelpful(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.IncrementHelpful(r.Context(), chi.URLParam(r, "reviewID")); err != nil {
		h.log.Warn("helpful increment failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "review_write_failed", "could not mark review helpful")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
