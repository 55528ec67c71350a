package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/servicelink-api/internal/application/catalog"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/validate"
)

// CatalogHandler handles the public service catalog and the admin-managed
// category tree.
type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler { return &CatalogHandler{svc: svc} }

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	filter, err := serviceFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	services, err := h.svc.ListServices(r.Context(), filter)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", services)
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.svc.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", svc)
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	svc, err := h.svc.CreateService(r.Context(), actor, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "service created", svc)
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	svc, err := h.svc.UpdateService(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "service updated", svc)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", categories)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var input domain.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&input); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), actor, input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "category created", c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var input domain.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&input); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c, err := h.svc.UpdateCategory(r.Context(), actor, chi.URLParam(r, "id"), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "category updated", c)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "category deleted", nil)
}
