package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMaintenance_Coercion тестирует приведение входных данных
func TestNewMaintenance_Coercion(t *testing.T) {
	tests := []struct {
		name        string
		when        string
		serviceType string
		cost        float64
		notes       string
		wantValid   bool
		wantCost    float64
	}{
		{
			name:        "валидная запись с датой и временем",
			when:        "2024-05-10T14:30",
			serviceType: "Oil change",
			cost:        150,
			notes:       "synthetic",
			wantValid:   true,
			wantCost:    150,
		},
		{
			name:        "только дата",
			when:        "2024-05-10",
			serviceType: "Inspection",
			wantValid:   true,
		},
		{
			name:        "нераспознаваемая дата дает невалидную запись",
			when:        "not-a-date",
			serviceType: "Inspection",
			wantValid:   false,
		},
		{
			name:        "пустой тип сервиса",
			when:        "2024-05-10",
			serviceType: "   ",
			wantValid:   false,
		},
		{
			name:        "отрицательная стоимость приводится к нулю",
			when:        "2024-05-10",
			serviceType: "Brakes",
			cost:        -20,
			wantValid:   true,
			wantCost:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaintenance(tt.when, tt.serviceType, tt.cost, tt.notes)
			assert.Equal(t, tt.wantValid, m.IsValid())
			assert.Equal(t, tt.wantCost, m.Cost)
		})
	}
}

// TestMaintenance_FormatHistoryLine тестирует строку истории (без времени)
func TestMaintenance_FormatHistoryLine(t *testing.T) {
	m := NewMaintenance("2023-10-20", "Oil change", 150, "full synthetic")
	assert.Equal(t, "Oil change on 20/10/2023 - R$ 150.00 (full synthetic)", m.FormatHistoryLine())

	free := NewMaintenance("2023-10-20", "Checkup", 0, "")
	assert.Equal(t, "Checkup on 20/10/2023", free.FormatHistoryLine())

	invalid := NewMaintenance("", "Checkup", 0, "")
	assert.Equal(t, "maintenance record with invalid date", invalid.FormatHistoryLine())
}

// TestMaintenance_FormatScheduleLine тестирует строку агендирования (с временем)
func TestMaintenance_FormatScheduleLine(t *testing.T) {
	when := time.Date(2024, 12, 25, 14, 30, 0, 0, time.Local)
	m := NewMaintenanceAt(when, "Revision", 300, "")
	assert.Equal(t, "Revision scheduled for 25/12/2024 14:30 - est. R$ 300.00", m.FormatScheduleLine())

	invalid := NewMaintenance("", "Revision", 300, "")
	assert.Equal(t, "scheduled maintenance with invalid date", invalid.FormatScheduleLine())
}

// TestMaintenance_Serialize тестирует сериализацию и фильтрацию невалидных
func TestMaintenance_Serialize(t *testing.T) {
	t.Run("валидная запись проходит round-trip", func(t *testing.T) {
		m := NewMaintenance("2024-05-10T14:30", "Oil change", 150, "notes")
		entry := m.Serialize()
		require.NotNil(t, entry)

		restored := MaintenanceFromEntry(*entry)
		require.NotNil(t, restored)
		assert.Equal(t, m.ServiceType, restored.ServiceType)
		assert.Equal(t, m.Cost, restored.Cost)
		assert.Equal(t, m.Notes, restored.Notes)
		assert.True(t, m.When.Equal(*restored.When))
	})

	t.Run("невалидная запись сериализуется в nil", func(t *testing.T) {
		m := NewMaintenance("garbage", "Oil change", 150, "")
		assert.Nil(t, m.Serialize())
	})
}
