package registration

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/event-registration/internal/common"
)

const defaultMaxBodyBytes = 64 << 10

// Handler exposes the registration service over HTTP.
type Handler struct {
	Svc          *Service
	MaxBodyBytes int64
}

// Event serves GET /events/{slug}.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	view, err := h.Svc.Event(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Quote serves POST /events/{slug}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload QuoteRequest
	if err := common.DecodeJSON(w, r, h.maxBody(), &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Quote(r.Context(), chi.URLParam(r, "slug"), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// ValidateCoupon serves POST /events/{slug}/coupons/validate. Rejected codes
// are a 200 with valid=false.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload CouponRequest
	if err := common.DecodeJSON(w, r, h.maxBody(), &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.ValidateCoupon(r.Context(), chi.URLParam(r, "slug"), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Register serves POST /events/{slug}/registrations.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload RegisterRequest
	if err := common.DecodeJSON(w, r, h.maxBody(), &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Register(r.Context(), chi.URLParam(r, "slug"), payload, r.Header.Get(common.IdempotencyHeader))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "registration service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) maxBody() int64 {
	if h.MaxBodyBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return h.MaxBodyBytes
}
