package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frontandrew/garage/internal/delivery/http/middleware"
	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GarageService - интерфейс сервиса хранения записей гаража
type GarageService interface {
	ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]domain.VehicleRecord, error)
	CreateVehicle(ctx context.Context, ownerID uuid.UUID, rec domain.VehicleRecord) (*domain.VehicleRecord, error)
	UpdateVehicle(ctx context.Context, ownerID uuid.UUID, id string, rec domain.VehicleRecord) (*domain.VehicleRecord, error)
	DeleteVehicle(ctx context.Context, ownerID uuid.UUID, id string) error
}

// GarageHandler обрабатывает запросы к записям гаража
type GarageHandler struct {
	garageService GarageService
	logger        logger.Logger
}

// NewGarageHandler создает новый handler
func NewGarageHandler(garageService GarageService, logger logger.Logger) *GarageHandler {
	return &GarageHandler{
		garageService: garageService,
		logger:        logger,
	}
}

// ListVehicles возвращает все записи текущего аккаунта
// GET /api/v1/garage/vehicles
func (h *GarageHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	records, err := h.garageService.ListVehicles(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("Failed to list vehicles", map[string]interface{}{
			"user_id": claims.UserID,
			"error":   err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}

	respondData(w, http.StatusOK, records)
}

// CreateVehicle сохраняет новую запись
// POST /api/v1/garage/vehicles
func (h *GarageHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var rec domain.VehicleRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.garageService.CreateVehicle(r.Context(), claims.UserID, rec)
	if err != nil {
		if errors.Is(err, domain.ErrModelRequired) || errors.Is(err, domain.ErrVehicleIDRequired) ||
			errors.Is(err, domain.ErrInvalidVehicleData) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create vehicle", map[string]interface{}{
			"user_id": claims.UserID,
			"error":   err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to create vehicle")
		return
	}

	respondData(w, http.StatusCreated, saved)
}

// UpdateVehicle полностью заменяет запись
// PUT /api/v1/garage/vehicles/{id}
func (h *GarageHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Vehicle ID required")
		return
	}

	var rec domain.VehicleRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.garageService.UpdateVehicle(r.Context(), claims.UserID, id, rec)
	if err != nil {
		h.respondVehicleError(w, claims.UserID, id, err)
		return
	}

	respondData(w, http.StatusOK, saved)
}

// DeleteVehicle удаляет запись
// DELETE /api/v1/garage/vehicles/{id}
func (h *GarageHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Vehicle ID required")
		return
	}

	if err := h.garageService.DeleteVehicle(r.Context(), claims.UserID, id); err != nil {
		h.respondVehicleError(w, claims.UserID, id, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Vehicle deleted",
	})
}

// respondVehicleError отображает ошибки операций над записью в статусы.
// Чужая запись отвечает 401, отсутствующая - 404: клиент различает
// эти случаи при синхронизации.
func (h *GarageHandler) respondVehicleError(w http.ResponseWriter, userID uuid.UUID, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusUnauthorized, "Vehicle belongs to another account")
	case errors.Is(err, domain.ErrVehicleNotFound):
		respondError(w, http.StatusNotFound, "Vehicle not found")
	case errors.Is(err, domain.ErrModelRequired), errors.Is(err, domain.ErrVehicleIDRequired),
		errors.Is(err, domain.ErrInvalidVehicleData):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Vehicle operation failed", map[string]interface{}{
			"user_id":    userID,
			"vehicle_id": id,
			"error":      err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Vehicle operation failed")
	}
}
