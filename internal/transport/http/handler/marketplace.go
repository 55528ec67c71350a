package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicelink-api/internal/application/marketplace"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/validate"
)

// MarketplaceHandler handles the online read paths for bids, bookings and
// chat threads, plus online message posting. Offline writes arrive through
// the sync upload instead.
type MarketplaceHandler struct {
	svc marketplace.Service
}

func NewMarketplaceHandler(svc marketplace.Service) *MarketplaceHandler {
	return &MarketplaceHandler{svc: svc}
}

func (h *MarketplaceHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	bids, err := h.svc.ListBids(r.Context(), actor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", bids)
}

func (h *MarketplaceHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var (
		bookings []domain.Booking
		err      error
	)
	if r.URL.Query().Get("as") == "provider" {
		bookings, err = h.svc.ListProviderBookings(r.Context(), actor)
	} else {
		bookings, err = h.svc.ListBookings(r.Context(), actor)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", bookings)
}

func (h *MarketplaceHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	threads, err := h.svc.ListThreads(r.Context(), actor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", threads)
}

func (h *MarketplaceHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	messages, err := h.svc.ListMessages(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", messages)
}

func (h *MarketplaceHandler) StartThread(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.StartThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	t, m, err := h.svc.StartThread(r.Context(), actor, req)
	if err != nil {
		httpError(w, err)
		return
	}
	payload := struct {
		Thread  *domain.Thread  `json:"thread"`
		Message *domain.Message `json:"message"`
	}{Thread: t, Message: m}
	writeData(w, http.StatusCreated, "message sent", payload)
}

func (h *MarketplaceHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	m, err := h.svc.PostMessage(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "message sent", m)
}
