package domain

import (
	"fmt"
	"strings"
	"time"
)

// Форматы дат, принимаемые при создании записи обслуживания.
// Формы присылают либо полную дату-время (datetime-local), либо только дату.
var maintenanceTimeLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02", false},
}

// Maintenance - одна запись об обслуживании автомобиля.
// Неизменяема после создания: правка выполняется заменой записи.
// Запись с When == nil считается невалидной и никогда не сохраняется.
type Maintenance struct {
	When        *time.Time
	ServiceType string
	Cost        float64
	Notes       string
}

// MaintenanceEntry - сериализованная форма записи (wire contract)
type MaintenanceEntry struct {
	When        string  `json:"when"`
	ServiceType string  `json:"service_type"`
	Cost        float64 `json:"cost"`
	Notes       string  `json:"notes,omitempty"`
}

// NewMaintenance создает запись обслуживания. Никогда не возвращает ошибку:
// нераспознаваемая дата дает When == nil, отрицательный или NaN cost
// приводится к нулю, текстовые поля обрезаются. Невалидные входные данные
// дают запись, которая не пройдет IsValid().
func NewMaintenance(when, serviceType string, cost float64, notes string) *Maintenance {
	m := &Maintenance{
		When:        parseMaintenanceTime(when),
		ServiceType: strings.TrimSpace(serviceType),
		Notes:       strings.TrimSpace(notes),
	}
	if cost > 0 {
		m.Cost = cost
	}
	return m
}

// NewMaintenanceAt создает запись с уже известным моментом времени
func NewMaintenanceAt(when time.Time, serviceType string, cost float64, notes string) *Maintenance {
	m := NewMaintenance("", serviceType, cost, notes)
	m.When = &when
	return m
}

// parseMaintenanceTime приводит строку к моменту времени или nil.
// Дата-время без зоны трактуется как локальное время (формы агендирования),
// дата без времени - как полночь UTC, чтобы не сдвигать календарный день.
func parseMaintenanceTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, l := range maintenanceTimeLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, value, loc); err == nil {
			return &t
		}
	}
	return nil
}

// IsValid проверяет, что запись можно сохранять и учитывать в истории
func (m *Maintenance) IsValid() bool {
	return m.When != nil && m.ServiceType != "" && m.Cost >= 0
}

// FormatHistoryLine форматирует запись для истории обслуживания:
// только дата (без времени, в UTC - отображение не зависит от зоны),
// стоимость если она больше нуля и заметки если есть.
func (m *Maintenance) FormatHistoryLine() string {
	if m.When == nil {
		return "maintenance record with invalid date"
	}
	line := fmt.Sprintf("%s on %s", m.serviceTypeLabel(), m.When.UTC().Format("02/01/2006"))
	if m.Cost > 0 {
		line += fmt.Sprintf(" - R$ %.2f", m.Cost)
	}
	if m.Notes != "" {
		line += fmt.Sprintf(" (%s)", m.Notes)
	}
	return line
}

// FormatScheduleLine форматирует запись как будущее агендирование:
// дата и время в локальной зоне плюс ориентировочная стоимость.
func (m *Maintenance) FormatScheduleLine() string {
	if m.When == nil {
		return "scheduled maintenance with invalid date"
	}
	line := fmt.Sprintf("%s scheduled for %s", m.serviceTypeLabel(), m.When.Local().Format("02/01/2006 15:04"))
	if m.Cost > 0 {
		line += fmt.Sprintf(" - est. R$ %.2f", m.Cost)
	}
	if m.Notes != "" {
		line += fmt.Sprintf(" (%s)", m.Notes)
	}
	return line
}

func (m *Maintenance) serviceTypeLabel() string {
	if m.ServiceType == "" {
		return "(unspecified service)"
	}
	return m.ServiceType
}

// Serialize возвращает сериализованную форму записи или nil для невалидной.
// Вызывающие обязаны отфильтровать nil перед сохранением истории, чтобы
// невалидные записи никогда не попадали в хранилище.
func (m *Maintenance) Serialize() *MaintenanceEntry {
	if !m.IsValid() {
		return nil
	}
	return &MaintenanceEntry{
		When:        m.When.UTC().Format(time.RFC3339),
		ServiceType: m.ServiceType,
		Cost:        m.Cost,
		Notes:       m.Notes,
	}
}

// MaintenanceFromEntry восстанавливает запись из сериализованной формы.
// Возвращает nil для записи, которую не удалось восстановить валидной.
func MaintenanceFromEntry(e MaintenanceEntry) *Maintenance {
	m := NewMaintenance(e.When, e.ServiceType, e.Cost, e.Notes)
	if !m.IsValid() {
		return nil
	}
	return m
}
