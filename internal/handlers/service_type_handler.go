package handlers

import (
	"encoding/json"
	"net/http"

	"localpros/internal/models"
	"localpros/internal/services"
)

// ServiceTypeHandler serves the service catalog endpoints.
type ServiceTypeHandler struct {
	Catalog *services.ServiceTypeService
}

// List returns the active skill vocabulary.
func (h *ServiceTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	types, err := h.Catalog.ListActive(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch services")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(types), "results": types})
}

type upsertServiceTypeRequest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	IsActive  *bool  `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

// Upsert creates or updates a catalog entry. Admin-only.
func (h *ServiceTypeHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertServiceTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	st, err := h.Catalog.Upsert(ctx, models.ServiceType{
		Name:      req.Name,
		Slug:      req.Slug,
		IsActive:  isActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, err, "failed to save service")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
