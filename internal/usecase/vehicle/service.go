package vehicle

import (
	"context"
	"errors"
	"fmt"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/frontandrew/garage/internal/repository"
	"github.com/google/uuid"
)

// Service содержит бизнес-логику хранения записей гаража.
// Сервер хранит записи в wire-форме и не моделирует поведение автомобиля:
// поведение живет на клиенте, здесь только валидация и принадлежность.
type Service struct {
	vehicleRepo repository.VehicleRepository
	logger      logger.Logger
}

// NewService создает новый экземпляр VehicleService
func NewService(vehicleRepo repository.VehicleRepository, logger logger.Logger) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		logger:      logger,
	}
}

// ListVehicles возвращает все записи владельца
func (s *Service) ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]domain.VehicleRecord, error) {
	records, err := s.vehicleRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return records, nil
}

// CreateVehicle валидирует и сохраняет новую запись.
// Пустой id в черновике заменяется серверным; запись прогоняется через
// доменную реконструкцию, чтобы в хранилище попадало только состояние,
// приведенное к инвариантам варианта.
func (s *Service) CreateVehicle(ctx context.Context, ownerID uuid.UUID, rec domain.VehicleRecord) (*domain.VehicleRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	normalized, err := normalizeRecord(rec)
	if err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Create(ctx, ownerID, *normalized); err != nil {
		s.logger.Error("Failed to create vehicle", map[string]interface{}{
			"vehicle_id": normalized.ID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("Vehicle created", map[string]interface{}{
		"vehicle_id": normalized.ID,
		"owner_id":   ownerID,
		"variant":    normalized.VariantTag,
	})

	return normalized, nil
}

// UpdateVehicle полностью заменяет запись владельца
func (s *Service) UpdateVehicle(ctx context.Context, ownerID uuid.UUID, id string, rec domain.VehicleRecord) (*domain.VehicleRecord, error) {
	if err := s.checkOwnership(ctx, ownerID, id); err != nil {
		return nil, err
	}

	rec.ID = id
	normalized, err := normalizeRecord(rec)
	if err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Update(ctx, id, *normalized); err != nil {
		s.logger.Error("Failed to update vehicle", map[string]interface{}{
			"vehicle_id": id,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	return normalized, nil
}

// DeleteVehicle удаляет запись владельца
func (s *Service) DeleteVehicle(ctx context.Context, ownerID uuid.UUID, id string) error {
	if err := s.checkOwnership(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete vehicle", map[string]interface{}{
			"vehicle_id": id,
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	s.logger.Info("Vehicle deleted", map[string]interface{}{
		"vehicle_id": id,
		"owner_id":   ownerID,
	})

	return nil
}

// checkOwnership проверяет, что запись принадлежит владельцу
func (s *Service) checkOwnership(ctx context.Context, ownerID uuid.UUID, id string) error {
	owned, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return domain.ErrVehicleNotFound
		}
		return fmt.Errorf("failed to get vehicle: %w", err)
	}
	if owned.OwnerID != ownerID {
		s.logger.Warn("Vehicle access denied", map[string]interface{}{
			"vehicle_id": id,
			"owner_id":   owned.OwnerID,
			"user_id":    ownerID,
		})
		return domain.ErrForbidden
	}
	return nil
}

// normalizeRecord прогоняет запись через доменную реконструкцию
func normalizeRecord(rec domain.VehicleRecord) (*domain.VehicleRecord, error) {
	v, err := domain.VehicleFromRecord(rec)
	if err != nil {
		return nil, err
	}
	normalized := v.Serialize()
	return &normalized, nil
}
