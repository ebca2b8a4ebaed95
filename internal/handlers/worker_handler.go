package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"localpros/internal/models"
	"localpros/internal/services"
)

// WorkerHandler serves the worker profile lifecycle endpoints.
type WorkerHandler struct {
	Workers *services.WorkerService
}

type registerWorkerRequest struct {
	Name            string         `json:"name"`
	Phone           string         `json:"phone"`
	Email           *string        `json:"email"`
	Skills          []string       `json:"skills"`
	ExperienceYears int            `json:"experience_years"`
	PricePerService float64        `json:"price_per_service"`
	PayType         models.PayType `json:"pay_type"`
	ServiceRadiusKm int            `json:"service_radius_km"`
	Address         models.Address `json:"address"`
}

// Register creates a worker profile. The address is geocoded server-side
// when coordinates are absent.
func (h *WorkerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	worker, err := h.Workers.Register(ctx, services.WorkerRegistration{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Skills:          req.Skills,
		ExperienceYears: req.ExperienceYears,
		PricePerService: req.PricePerService,
		PayType:         req.PayType,
		ServiceRadiusKm: req.ServiceRadiusKm,
		Address:         req.Address,
	})
	if err != nil {
		writeServiceError(w, err, "failed to register worker")
		return
	}
	writeJSON(w, http.StatusCreated, worker)
}

// Deactivate takes a worker out of search rotation.
func (h *WorkerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(getParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid worker id")
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if err := h.Workers.Deactivate(ctx, id); err != nil {
		if errors.Is(err, models.ErrWorkerNotFound) {
			writeError(w, http.StatusNotFound, "worker not found")
			return
		}
		writeServiceError(w, err, "failed to deactivate worker")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

// SetVisibility flips the profile visibility override.
func (h *WorkerHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(getParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid worker id")
		return
	}
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if err := h.Workers.SetProfileVisible(ctx, id, req.Visible); err != nil {
		if errors.Is(err, models.ErrWorkerNotFound) {
			writeError(w, http.StatusNotFound, "worker not found")
			return
		}
		writeServiceError(w, err, "failed to update worker visibility")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
