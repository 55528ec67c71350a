package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicelink-api/internal/application/device"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/transport/http/middleware"
)

// DeviceHandler handles device endpoints.
type DeviceHandler struct {
	svc device.Service
}

func NewDeviceHandler(svc device.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	devices, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", devices)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", d)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "device updated", updated)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "device deleted", nil)
}

func (h *DeviceHandler) CheckVersion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceVersion float64 `json:"device_version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	upToDate, err := h.svc.CheckVersion(r.Context(), claims.SessionID, body.DeviceVersion)
	if err != nil {
		httpError(w, err)
		return
	}
	if !upToDate {
		writeError(w, http.StatusConflict, "update required")
		return
	}
	writeData(w, http.StatusOK, "up to date", nil)
}
