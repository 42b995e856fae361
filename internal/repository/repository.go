package repository

import (
	"context"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/google/uuid"
)

// UserRepository определяет методы для работы с аккаунтами
type UserRepository interface {
	// Create создает новый аккаунт
	Create(ctx context.Context, user *domain.User) error

	// GetByID возвращает аккаунт по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail возвращает аккаунт по email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OwnedVehicle - запись автомобиля вместе с владельцем
type OwnedVehicle struct {
	OwnerID uuid.UUID
	Record  domain.VehicleRecord
}

// VehicleRepository определяет методы для хранения записей гаража.
// Записи хранятся в wire-форме: сервер не интерпретирует состояние
// автомобиля, он только хранит его для клиентских сессий.
type VehicleRepository interface {
	// Create сохраняет новую запись для владельца
	Create(ctx context.Context, ownerID uuid.UUID, rec domain.VehicleRecord) error

	// GetByID возвращает запись вместе с владельцем
	GetByID(ctx context.Context, id string) (*OwnedVehicle, error)

	// ListByOwner возвращает все записи владельца
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.VehicleRecord, error)

	// Update полностью заменяет запись
	Update(ctx context.Context, id string, rec domain.VehicleRecord) error

	// Delete удаляет запись
	Delete(ctx context.Context, id string) error
}
