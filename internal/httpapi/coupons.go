package httpapi

import (
	"encoding/json"
	"net/http"
)

type couponRequest struct {
	Code        string  `json:"code"`
	OrderAmount float64 `json:"order_amount"`
}

// ValidateCoupon checks a code against an order amount without consuming a
// use. Validation failures come back as 200 with valid=false; they are an
// answer, not a transport error.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.respondJSON(w, http.StatusOK, h.coupons.Validate(r.Context(), req.Code, req.OrderAmount))
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.respondJSON(w, http.StatusOK, h.coupons.Apply(r.Context(), req.Code, req.OrderAmount))
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.Active(r.Context())
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "coupons_unavailable", "could not load coupons")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"coupons": coupons})
}
