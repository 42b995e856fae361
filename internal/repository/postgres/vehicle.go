package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// vehicleRepository - PostgreSQL реализация VehicleRepository.
// Запись хранится в wire-форме: скалярные поля колонками, история
// обслуживания единым JSONB документом - сервер ее не интерпретирует.
type vehicleRepository struct {
	db *pgxpool.Pool
}

// NewVehicleRepository создает новый экземпляр vehicleRepository
func NewVehicleRepository(db *pgxpool.Pool) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, ownerID uuid.UUID, rec domain.VehicleRecord) error {
	query := `
		INSERT INTO garage_vehicles (
			id, owner_id, model, color, image_ref, plate, year, cnh_expiry,
			is_on, speed, variant_tag, turbo_on, cargo_capacity, current_cargo,
			maintenance_history, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	history, err := json.Marshal(rec.MaintenanceHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal maintenance history: %w", err)
	}

	now := time.Now()
	_, err = r.db.Exec(ctx, query,
		rec.ID,
		ownerID,
		rec.Model,
		rec.Color,
		rec.ImageRef,
		rec.Plate,
		rec.Year,
		rec.CNHExpiry,
		rec.IsOn,
		rec.Speed,
		rec.VariantTag,
		rec.TurboOn,
		rec.CargoCapacity,
		rec.CurrentCargo,
		history,
		now,
		now,
	)
	return err
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*repository.OwnedVehicle, error) {
	query := `
		SELECT id, owner_id, model, color, image_ref, plate, year, cnh_expiry,
		       is_on, speed, variant_tag, turbo_on, cargo_capacity, current_cargo,
		       maintenance_history
		FROM garage_vehicles
		WHERE id = $1
	`

	owned := &repository.OwnedVehicle{}
	var history []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&owned.Record.ID,
		&owned.OwnerID,
		&owned.Record.Model,
		&owned.Record.Color,
		&owned.Record.ImageRef,
		&owned.Record.Plate,
		&owned.Record.Year,
		&owned.Record.CNHExpiry,
		&owned.Record.IsOn,
		&owned.Record.Speed,
		&owned.Record.VariantTag,
		&owned.Record.TurboOn,
		&owned.Record.CargoCapacity,
		&owned.Record.CurrentCargo,
		&history,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	if err := unmarshalHistory(history, &owned.Record); err != nil {
		return nil, err
	}
	return owned, nil
}

func (r *vehicleRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.VehicleRecord, error) {
	query := `
		SELECT id, model, color, image_ref, plate, year, cnh_expiry,
		       is_on, speed, variant_tag, turbo_on, cargo_capacity, current_cargo,
		       maintenance_history
		FROM garage_vehicles
		WHERE owner_id = $1
		ORDER BY model
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.VehicleRecord{}
	for rows.Next() {
		var rec domain.VehicleRecord
		var history []byte
		err := rows.Scan(
			&rec.ID,
			&rec.Model,
			&rec.Color,
			&rec.ImageRef,
			&rec.Plate,
			&rec.Year,
			&rec.CNHExpiry,
			&rec.IsOn,
			&rec.Speed,
			&rec.VariantTag,
			&rec.TurboOn,
			&rec.CargoCapacity,
			&rec.CurrentCargo,
			&history,
		)
		if err != nil {
			return nil, err
		}
		if err := unmarshalHistory(history, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *vehicleRepository) Update(ctx context.Context, id string, rec domain.VehicleRecord) error {
	query := `
		UPDATE garage_vehicles
		SET model = $2, color = $3, image_ref = $4, plate = $5, year = $6,
		    cnh_expiry = $7, is_on = $8, speed = $9, variant_tag = $10,
		    turbo_on = $11, cargo_capacity = $12, current_cargo = $13,
		    maintenance_history = $14, updated_at = $15
		WHERE id = $1
	`

	history, err := json.Marshal(rec.MaintenanceHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal maintenance history: %w", err)
	}

	result, err := r.db.Exec(ctx, query,
		id,
		rec.Model,
		rec.Color,
		rec.ImageRef,
		rec.Plate,
		rec.Year,
		rec.CNHExpiry,
		rec.IsOn,
		rec.Speed,
		rec.VariantTag,
		rec.TurboOn,
		rec.CargoCapacity,
		rec.CurrentCargo,
		history,
		time.Now(),
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}
	return nil
}

func (r *vehicleRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM garage_vehicles WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}
	return nil
}

// unmarshalHistory восстанавливает историю из JSONB документа.
// NULL в колонке дает пустую историю.
func unmarshalHistory(data []byte, rec *domain.VehicleRecord) error {
	rec.MaintenanceHistory = []domain.MaintenanceEntry{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &rec.MaintenanceHistory); err != nil {
		return fmt.Errorf("failed to unmarshal maintenance history: %w", err)
	}
	return nil
}
