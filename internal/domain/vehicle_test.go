package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVehicle(t *testing.T, typ VehicleType, capacity float64) *Vehicle {
	t.Helper()
	v, err := NewVehicle("v-1", Draft{
		Type:          typ,
		Model:         "Test Model",
		Plate:         "abc 1234",
		CargoCapacity: capacity,
	})
	require.NoError(t, err)
	return v
}

// TestNewVehicle тестирует конструктор и нормализацию полей
func TestNewVehicle(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		draft   Draft
		wantErr error
	}{
		{
			name:  "валидный базовый автомобиль",
			id:    "v-1",
			draft: Draft{Type: VehicleTypeCar, Model: "Fusca"},
		},
		{
			name:    "пустой id",
			id:      "",
			draft:   Draft{Model: "Fusca"},
			wantErr: ErrVehicleIDRequired,
		},
		{
			name:    "пустая модель",
			id:      "v-1",
			draft:   Draft{Model: "   "},
			wantErr: ErrModelRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVehicle(tt.id, tt.draft)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, v.IsOn)
			assert.Zero(t, v.Speed)
			assert.Empty(t, v.History)
		})
	}

	t.Run("нормализация номера, года и CNH", func(t *testing.T) {
		v, err := NewVehicle("v-2", Draft{
			Model:     "Opala",
			Plate:     "abc 1d23",
			Year:      1979,
			CNHExpiry: "2027-03-15",
		})
		require.NoError(t, err)
		assert.Equal(t, "ABC1D23", v.Plate)
		require.NotNil(t, v.Year)
		assert.Equal(t, 1979, *v.Year)
		require.NotNil(t, v.CNHExpiry)
		assert.Equal(t, time.Date(2027, 3, 15, 0, 0, 0, 0, time.UTC), *v.CNHExpiry)
	})

	t.Run("неизвестный вариант трактуется как базовый", func(t *testing.T) {
		v, err := NewVehicle("v-3", Draft{Type: "hovercraft", Model: "X"})
		require.NoError(t, err)
		assert.Equal(t, VehicleTypeCar, v.Type)
		assert.Equal(t, "default_car.png", v.ImageRef)
	})
}

// TestVehicle_PowerCycle тестирует зажигание
func TestVehicle_PowerCycle(t *testing.T) {
	v := newTestVehicle(t, VehicleTypeCar, 0)

	assert.ErrorIs(t, v.PowerOff(), ErrEngineAlreadyOff)
	require.NoError(t, v.PowerOn())
	assert.True(t, v.IsOn)
	assert.ErrorIs(t, v.PowerOn(), ErrEngineAlreadyOn)

	// Нельзя глушить на ходу
	require.NoError(t, v.Accelerate())
	assert.Equal(t, 10.0, v.Speed)
	assert.ErrorIs(t, v.PowerOff(), ErrStopBeforePowerOff)
	assert.True(t, v.IsOn)

	require.NoError(t, v.Brake())
	assert.Zero(t, v.Speed)
	require.NoError(t, v.PowerOff())
	assert.False(t, v.IsOn)
}

// TestVehicle_Accelerate тестирует инкременты и пределы скорости вариантов
func TestVehicle_Accelerate(t *testing.T) {
	t.Run("заглушенный двигатель", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeCar, 0)
		assert.ErrorIs(t, v.Accelerate(), ErrEngineOff)
		assert.Zero(t, v.Speed)
	})

	t.Run("базовый: +10 до 180", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeCar, 0)
		require.NoError(t, v.PowerOn())
		for i := 0; i < 30; i++ {
			require.NoError(t, v.Accelerate())
			assert.LessOrEqual(t, v.Speed, v.MaxSpeed())
		}
		assert.Equal(t, 180.0, v.Speed)
	})

	t.Run("спортивный: турбо увеличивает инкремент", func(t *testing.T) {
		plain := newTestVehicle(t, VehicleTypeSport, 0)
		turbo := newTestVehicle(t, VehicleTypeSport, 0)
		require.NoError(t, plain.PowerOn())
		require.NoError(t, turbo.PowerOn())
		require.NoError(t, turbo.ToggleTurbo())

		require.NoError(t, plain.Accelerate())
		require.NoError(t, turbo.Accelerate())
		assert.Equal(t, 15.0, plain.Speed)
		assert.Equal(t, 25.0, turbo.Speed)
	})

	t.Run("спортивный: предел 250", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeSport, 0)
		require.NoError(t, v.PowerOn())
		require.NoError(t, v.ToggleTurbo())
		for i := 0; i < 20; i++ {
			require.NoError(t, v.Accelerate())
		}
		assert.Equal(t, 250.0, v.Speed)
	})

	t.Run("пустой грузовик: +8", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeTruck, 100)
		require.NoError(t, v.PowerOn())
		require.NoError(t, v.Accelerate())
		assert.Equal(t, 8.0, v.Speed)
	})

	t.Run("полный грузовик ускоряется медленнее", func(t *testing.T) {
		// load factor = 1 - 100/(100*1.5) = 1/3, round(8/3) = 3
		v := newTestVehicle(t, VehicleTypeTruck, 100)
		require.NoError(t, v.LoadCargo(100))
		require.NoError(t, v.PowerOn())
		require.NoError(t, v.Accelerate())
		assert.Equal(t, 3.0, v.Speed)
	})

	t.Run("грузовик с нулевой грузоподъемностью не делит на ноль", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeTruck, 0)
		require.NoError(t, v.PowerOn())
		require.NoError(t, v.Accelerate())
		assert.Equal(t, 8.0, v.Speed)
	})
}

// TestVehicle_Brake тестирует торможение
func TestVehicle_Brake(t *testing.T) {
	v := newTestVehicle(t, VehicleTypeCar, 0)
	require.NoError(t, v.PowerOn())
	require.NoError(t, v.Accelerate()) // 10
	require.NoError(t, v.Brake())
	assert.Zero(t, v.Speed) // floor на нуле

	require.NoError(t, v.Brake()) // no-op на стоящем
	assert.Zero(t, v.Speed)
}

// TestVehicle_ToggleTurbo тестирует переключение турбо
func TestVehicle_ToggleTurbo(t *testing.T) {
	t.Run("только для спортивного", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeCar, 0)
		assert.ErrorIs(t, v.ToggleTurbo(), ErrUnsupportedAction)
	})

	t.Run("только на заведенном двигателе", func(t *testing.T) {
		v := newTestVehicle(t, VehicleTypeSport, 0)
		assert.ErrorIs(t, v.ToggleTurbo(), ErrEngineOff)
		assert.False(t, v.TurboOn)

		require.NoError(t, v.PowerOn())
		require.NoError(t, v.ToggleTurbo())
		assert.True(t, v.TurboOn)
		require.NoError(t, v.ToggleTurbo())
		assert.False(t, v.TurboOn)
	})
}

// TestVehicle_LoadCargo тестирует загрузку грузовика
func TestVehicle_LoadCargo(t *testing.T) {
	v := newTestVehicle(t, VehicleTypeTruck, 100)

	assert.ErrorIs(t, v.LoadCargo(-5), ErrInvalidCargoWeight)
	assert.Zero(t, v.CurrentCargo)

	require.NoError(t, v.LoadCargo(60))
	assert.Equal(t, 60.0, v.CurrentCargo)

	err := v.LoadCargo(50)
	assert.ErrorIs(t, err, ErrCargoCapacityExceeded)
	assert.Contains(t, err.Error(), "50kg")
	assert.Contains(t, err.Error(), "100kg")
	assert.Equal(t, 60.0, v.CurrentCargo)

	car := newTestVehicle(t, VehicleTypeCar, 0)
	assert.ErrorIs(t, car.LoadCargo(10), ErrUnsupportedAction)
}

// TestVehicle_AddMaintenance тестирует историю обслуживания
func TestVehicle_AddMaintenance(t *testing.T) {
	v := newTestVehicle(t, VehicleTypeCar, 0)

	t.Run("невалидная запись не попадает в историю", func(t *testing.T) {
		err := v.AddMaintenance(NewMaintenance("2024-05-02", "", 10, ""))
		assert.ErrorIs(t, err, ErrInvalidMaintenance)
		assert.Empty(t, v.History)
	})

	t.Run("история упорядочена по убыванию даты", func(t *testing.T) {
		day2 := NewMaintenance("2024-05-02", "Oil change", 10, "")
		day1 := NewMaintenance("2024-05-01", "Inspection", 0, "")
		require.NoError(t, v.AddMaintenance(day2))
		require.NoError(t, v.AddMaintenance(day1))

		require.Len(t, v.History, 2)
		assert.Equal(t, "Oil change", v.History[0].ServiceType)
		assert.Equal(t, "Inspection", v.History[1].ServiceType)
	})

	t.Run("очистка истории", func(t *testing.T) {
		v.ClearMaintenanceHistory()
		assert.Empty(t, v.History)
	})
}

// TestVehicle_SerializeRoundTrip тестирует закон round-trip wire-контракта
func TestVehicle_SerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *Vehicle
	}{
		{
			name: "базовый автомобиль",
			build: func(t *testing.T) *Vehicle {
				v, err := NewVehicle("v-car", Draft{
					Model:     "Fusca",
					Color:     "blue",
					Plate:     "abc1234",
					Year:      1972,
					CNHExpiry: "2026-11-30",
				})
				require.NoError(t, err)
				require.NoError(t, v.AddMaintenance(NewMaintenance("2024-05-01", "Oil change", 120, "ok")))
				return v
			},
		},
		{
			name: "спортивный с турбо",
			build: func(t *testing.T) *Vehicle {
				v, err := NewVehicle("v-sport", Draft{Type: VehicleTypeSport, Model: "F40"})
				require.NoError(t, err)
				require.NoError(t, v.PowerOn())
				require.NoError(t, v.ToggleTurbo())
				require.NoError(t, v.Accelerate())
				return v
			},
		},
		{
			name: "грузовик с грузом",
			build: func(t *testing.T) *Vehicle {
				v, err := NewVehicle("v-truck", Draft{Type: VehicleTypeTruck, Model: "Scania", CargoCapacity: 5000})
				require.NoError(t, err)
				require.NoError(t, v.LoadCargo(1200))
				return v
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.build(t)

			// round-trip через настоящие JSON-байты, как по проводу
			data, err := json.Marshal(v.Serialize())
			require.NoError(t, err)
			var rec VehicleRecord
			require.NoError(t, json.Unmarshal(data, &rec))

			restored, err := VehicleFromRecord(rec)
			require.NoError(t, err)

			assert.Equal(t, v.ID, restored.ID)
			assert.Equal(t, v.Type, restored.Type)
			assert.Equal(t, v.Model, restored.Model)
			assert.Equal(t, v.Color, restored.Color)
			assert.Equal(t, v.ImageRef, restored.ImageRef)
			assert.Equal(t, v.Plate, restored.Plate)
			assert.Equal(t, v.Year, restored.Year)
			assert.Equal(t, v.IsOn, restored.IsOn)
			assert.Equal(t, v.Speed, restored.Speed)
			assert.Equal(t, v.TurboOn, restored.TurboOn)
			assert.Equal(t, v.CargoCapacity, restored.CargoCapacity)
			assert.Equal(t, v.CurrentCargo, restored.CurrentCargo)
			assert.Len(t, restored.History, len(v.History))
			if v.CNHExpiry == nil {
				assert.Nil(t, restored.CNHExpiry)
			} else {
				require.NotNil(t, restored.CNHExpiry)
				assert.True(t, v.CNHExpiry.Equal(*restored.CNHExpiry))
			}
		})
	}
}

// TestVehicleFromRecord_Reconstruction тестирует восстановление из записи
func TestVehicleFromRecord_Reconstruction(t *testing.T) {
	t.Run("неизвестный тег дает базовый вариант", func(t *testing.T) {
		v, err := VehicleFromRecord(VehicleRecord{ID: "v-1", Model: "Mystery", VariantTag: "submarine"})
		require.NoError(t, err)
		assert.Equal(t, VehicleTypeCar, v.Type)
	})

	t.Run("испорченная запись обслуживания пропускается", func(t *testing.T) {
		v, err := VehicleFromRecord(VehicleRecord{
			ID: "v-1", Model: "Fusca", VariantTag: "car",
			MaintenanceHistory: []MaintenanceEntry{
				{When: "garbage", ServiceType: "Oil change", Cost: 10},
				{When: "2024-05-01T10:00:00Z", ServiceType: "Inspection"},
			},
		})
		require.NoError(t, err)
		require.Len(t, v.History, 1)
		assert.Equal(t, "Inspection", v.History[0].ServiceType)
	})

	t.Run("скорость и груз приводятся к инвариантам", func(t *testing.T) {
		v, err := VehicleFromRecord(VehicleRecord{
			ID: "v-1", Model: "Scania", VariantTag: "truck",
			Speed: 9000, CargoCapacity: 100, CurrentCargo: 500,
		})
		require.NoError(t, err)
		assert.Equal(t, 140.0, v.Speed)
		assert.Equal(t, 100.0, v.CurrentCargo)
	})

	t.Run("запись без модели отклоняется", func(t *testing.T) {
		_, err := VehicleFromRecord(VehicleRecord{ID: "v-1", VariantTag: "car"})
		assert.ErrorIs(t, err, ErrModelRequired)
	})
}

// TestVehicle_Clone тестирует независимость снапшота
func TestVehicle_Clone(t *testing.T) {
	v := newTestVehicle(t, VehicleTypeCar, 0)
	require.NoError(t, v.AddMaintenance(NewMaintenance("2024-05-01", "Oil change", 10, "")))

	snapshot := v.Clone()
	require.NoError(t, v.AddMaintenance(NewMaintenance("2024-05-02", "Brakes", 20, "")))
	v.Model = "Changed"

	assert.Len(t, snapshot.History, 1)
	assert.Equal(t, "Test Model", snapshot.Model)
}
