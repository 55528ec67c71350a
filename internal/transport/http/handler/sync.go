package handler

import (
	"encoding/json"
	"net/http"
	"time"

	syncapp "github.com/servicelink-api/internal/application/sync"
	"github.com/servicelink-api/internal/domain"
)

// SyncHandler handles offline client reconciliation: batch uploads plus the
// profile and catalog snapshots clients cache locally.
type SyncHandler struct {
	svc syncapp.Service
}

func NewSyncHandler(svc syncapp.Service) *SyncHandler { return &SyncHandler{svc: svc} }

// Upload reconciles a batch of offline-created records. Per-item failures are
// soft and reported under data.errors; the batch itself either commits fully
// or not at all.
func (h *SyncHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SyncUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Upload(r.Context(), actor, req)
	if err != nil {
		httpError(w, err)
		return
	}
	msg := "sync complete"
	if !result.Success {
		msg = "sync completed with errors"
	}
	writeData(w, http.StatusOK, msg, result)
}

func (h *SyncHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := h.svc.Profile(r.Context(), actor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", profile)
}

// Services returns the catalog slice an offline client should refresh.
// updated_after enables incremental downloads.
func (h *SyncHandler) Services(w http.ResponseWriter, r *http.Request) {
	filter, err := serviceFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	services, err := h.svc.Services(r.Context(), filter)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", services)
}

func serviceFilterFromQuery(r *http.Request) (domain.ServiceFilter, error) {
	filter := domain.ServiceFilter{
		CategoryID: r.URL.Query().Get("category"),
		Query:      r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("updated_after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.ServiceFilter{}, err
		}
		filter.UpdatedSince = &ts
	}
	return filter, nil
}
