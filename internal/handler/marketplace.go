package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetBusinesses возвращает партнёров, опционально отфильтрованных по категории.
func (h *Handler) GetBusinesses(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Businesses(r.URL.Query().Get("category")))
}

// GetCategories возвращает категории каталога.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Categories())
}

type redeemRequest struct {
	BusinessID string `json:"business_id"`
	Points     int    `json:"points"`
}

// Redeem обменивает баллы пользователя на купон.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.BusinessID == "" || req.Points <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	coupon, err := h.service.Redeem(r.Context(), user, req.BusinessID, req.Points)
	if err != nil {
		h.fail(w, err, "redeem error", user)
		return
	}

	h.writeJSON(w, http.StatusCreated, coupon)
}

// GetCoupons возвращает купоны пользователя по группам.
func (h *Handler) GetCoupons(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	overview, err := h.service.Coupons(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get coupons error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, overview)
}

// UseCoupon отмечает купон использованным.
func (h *Handler) UseCoupon(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	coupon, err := h.service.MarkCouponUsed(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "use coupon error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, coupon)
}
