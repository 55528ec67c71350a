package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicelink-api/internal/application/verification"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/validate"
)

// VerificationHandler handles the document verification lifecycle: owner
// submission and cancellation, admin review actions and the status dashboard.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// reviewNotes is the optional body of the admin review actions.
type reviewNotes struct {
	Notes *string `json:"notes"`
}

func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SubmitVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	v, err := h.svc.Submit(r.Context(), actor, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "verification submitted", v)
}

func (h *VerificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.List(r.Context(), actor, actor.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", list)
}

// ListForUser is the admin view of another user's verification history.
func (h *VerificationHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.List(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", list)
}

func (h *VerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	v, err := h.svc.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", v)
}

func (h *VerificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification updated", v)
}

func (h *VerificationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	v, err := h.svc.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification cancelled", v)
}

func (h *VerificationHandler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body reviewNotes
	_ = json.NewDecoder(r.Body).Decode(&body) // body is optional
	v, err := h.svc.MarkInProgress(r.Context(), actor, chi.URLParam(r, "id"), body.Notes)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification in progress", v)
}

func (h *VerificationHandler) MarkVerified(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body reviewNotes
	_ = json.NewDecoder(r.Body).Decode(&body)
	v, err := h.svc.MarkVerified(r.Context(), actor, chi.URLParam(r, "id"), body.Notes)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification approved", v)
}

func (h *VerificationHandler) MarkRejected(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RejectVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	v, err := h.svc.MarkRejected(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification rejected", v)
}

func (h *VerificationHandler) StatusSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.svc.StatusSummary(r.Context(), actor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", summary)
}
