package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// VehicleType - дискриминатор варианта транспортного средства
type VehicleType string

const (
	VehicleTypeCar   VehicleType = "car"
	VehicleTypeSport VehicleType = "sport"
	VehicleTypeTruck VehicleType = "truck"
)

// variantSpec - константы варианта. Вся специфика вариантов собрана в одной
// таблице, диспетчеризация идет по тегу, а не через наследование.
type variantSpec struct {
	MaxSpeed       float64
	Increment      float64
	TurboIncrement float64
	DefaultImage   string
}

var variantSpecs = map[VehicleType]variantSpec{
	VehicleTypeCar:   {MaxSpeed: 180, Increment: 10, DefaultImage: "default_car.png"},
	VehicleTypeSport: {MaxSpeed: 250, Increment: 15, TurboIncrement: 25, DefaultImage: "default_sport.png"},
	VehicleTypeTruck: {MaxSpeed: 140, Increment: 8, DefaultImage: "default_truck.png"},
}

// brakeDecrement - снижение скорости за одно торможение, общее для вариантов
const brakeDecrement = 15

// Vehicle - транспортное средство гаража.
// Вариант задается полем Type; поля TurboOn (sport) и
// CargoCapacity/CurrentCargo (truck) осмысленны только для своего варианта.
// Принадлежность аккаунту назначается при создании на сервере и не меняется.
type Vehicle struct {
	ID        string
	Type      VehicleType
	Model     string
	Color     string
	ImageRef  string
	Plate     string
	Year      *int
	CNHExpiry *time.Time

	IsOn  bool
	Speed float64

	// Sport
	TurboOn bool

	// Truck. CargoCapacity неизменяема после создания.
	CargoCapacity float64
	CurrentCargo  float64

	History []*Maintenance
}

// Draft - пользовательские данные для создания автомобиля
type Draft struct {
	Type          VehicleType
	Model         string
	Color         string
	ImageRef      string
	Plate         string
	Year          int    // <= 0 - год не указан
	CNHExpiry     string // календарная дата YYYY-MM-DD, пустая строка - нет
	CargoCapacity float64
}

// VehicleRecord - wire contract с persistence collaborator.
// Достаточен для полного восстановления автомобиля (derived-поля UI
// в запись не входят).
type VehicleRecord struct {
	ID                 string             `json:"id"`
	Model              string             `json:"model"`
	Color              string             `json:"color,omitempty"`
	ImageRef           string             `json:"image_ref,omitempty"`
	Plate              string             `json:"plate,omitempty"`
	Year               *int               `json:"year,omitempty"`
	CNHExpiry          *string            `json:"cnh_expiry"`
	IsOn               bool               `json:"is_on"`
	Speed              float64            `json:"speed"`
	VariantTag         string             `json:"variant_tag"`
	TurboOn            bool               `json:"turbo_on,omitempty"`
	CargoCapacity      float64            `json:"cargo_capacity,omitempty"`
	CurrentCargo       float64            `json:"current_cargo,omitempty"`
	MaintenanceHistory []MaintenanceEntry `json:"maintenance_history"`
}

// NewVehicle создает автомобиль из пользовательских данных.
// ID и модель обязательны, номер приводится к верхнему регистру,
// неизвестный вариант трактуется как базовый.
func NewVehicle(id string, d Draft) (*Vehicle, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrVehicleIDRequired
	}
	model := strings.TrimSpace(d.Model)
	if model == "" {
		return nil, ErrModelRequired
	}

	typ := normalizeVehicleType(d.Type)
	v := &Vehicle{
		ID:        id,
		Type:      typ,
		Model:     model,
		Color:     strings.TrimSpace(d.Color),
		ImageRef:  d.ImageRef,
		Plate:     NormalizePlate(d.Plate),
		CNHExpiry: ParseCNHDate(d.CNHExpiry),
	}
	if v.ImageRef == "" {
		v.ImageRef = variantSpecs[typ].DefaultImage
	}
	if d.Year > 0 {
		year := d.Year
		v.Year = &year
	}
	if typ == VehicleTypeTruck && d.CargoCapacity > 0 {
		v.CargoCapacity = d.CargoCapacity
	}
	return v, nil
}

func normalizeVehicleType(t VehicleType) VehicleType {
	switch t {
	case VehicleTypeSport, VehicleTypeTruck:
		return t
	default:
		return VehicleTypeCar
	}
}

// NormalizePlate нормализует номер (убирает пробелы, верхний регистр)
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), " ", ""))
}

// ParseCNHDate приводит календарную дату к полуночи UTC или nil.
// Полночь UTC исключает сдвиг даты при переходе через часовые пояса.
func ParseCNHDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &day
	}
	return nil
}

// MaxSpeed возвращает предел скорости варианта
func (v *Vehicle) MaxSpeed() float64 {
	return variantSpecs[v.Type].MaxSpeed
}

// PowerOn заводит двигатель
func (v *Vehicle) PowerOn() error {
	if v.IsOn {
		return ErrEngineAlreadyOn
	}
	v.IsOn = true
	return nil
}

// PowerOff глушит двигатель. Отказывает на ходу: сначала остановиться.
func (v *Vehicle) PowerOff() error {
	if !v.IsOn {
		return ErrEngineAlreadyOff
	}
	if v.Speed > 0 {
		return ErrStopBeforePowerOff
	}
	v.IsOn = false
	return nil
}

// Accelerate увеличивает скорость с учетом варианта, не превышая предел.
// Грузовик ускоряется тем медленнее, чем он загружен, но минимум на 1:
// делитель capacity*1.5 не дает фактору загрузки дойти до нуля.
func (v *Vehicle) Accelerate() error {
	if !v.IsOn {
		return ErrEngineOff
	}
	spec := variantSpecs[v.Type]
	increment := spec.Increment
	switch v.Type {
	case VehicleTypeSport:
		if v.TurboOn {
			increment = spec.TurboIncrement
		}
	case VehicleTypeTruck:
		divisor := v.CargoCapacity * 1.5
		if divisor == 0 {
			divisor = 1
		}
		loadFactor := 1 - v.CurrentCargo/divisor
		increment = math.Max(1, math.Round(spec.Increment*loadFactor))
	}
	v.Speed = math.Min(v.Speed+increment, spec.MaxSpeed)
	return nil
}

// Brake снижает скорость, не опускаясь ниже нуля. На стоящем - no-op.
func (v *Vehicle) Brake() error {
	if v.Speed > 0 {
		v.Speed = math.Max(0, v.Speed-brakeDecrement)
	}
	return nil
}

// Honk не меняет состояние: только уведомление на стороне представления
func (v *Vehicle) Honk() error {
	return nil
}

// ToggleTurbo переключает турбо спортивного автомобиля на заведенном двигателе
func (v *Vehicle) ToggleTurbo() error {
	if v.Type != VehicleTypeSport {
		return ErrUnsupportedAction
	}
	if !v.IsOn {
		return ErrEngineOff
	}
	v.TurboOn = !v.TurboOn
	return nil
}

// LoadCargo догружает грузовик. Перегруз отклоняется без изменения состояния.
func (v *Vehicle) LoadCargo(weight float64) error {
	if v.Type != VehicleTypeTruck {
		return ErrUnsupportedAction
	}
	if weight <= 0 || math.IsNaN(weight) {
		return ErrInvalidCargoWeight
	}
	if v.CurrentCargo+weight > v.CargoCapacity {
		return fmt.Errorf("%w: cannot load %.0fkg, capacity is %.0fkg",
			ErrCargoCapacityExceeded, weight, v.CargoCapacity)
	}
	v.CurrentCargo += weight
	return nil
}

// AddMaintenance вставляет валидную запись в историю и пересортировывает ее
// по убыванию даты. Фиксация в хранилище - забота вызывающего; при неудаче
// сохранения вставку нужно откатить (см. garage.Repository).
func (v *Vehicle) AddMaintenance(m *Maintenance) error {
	if m == nil || !m.IsValid() {
		return ErrInvalidMaintenance
	}
	v.History = append(v.History, m)
	v.sortHistory()
	return nil
}

// ClearMaintenanceHistory очищает историю обслуживания
func (v *Vehicle) ClearMaintenanceHistory() {
	v.History = nil
}

// sortHistory упорядочивает историю: самые свежие первыми,
// записи без даты трактуются как самые ранние и уходят в конец.
func (v *Vehicle) sortHistory() {
	sort.SliceStable(v.History, func(i, j int) bool {
		ti, tj := int64(0), int64(0)
		if v.History[i].When != nil {
			ti = v.History[i].When.UnixMilli()
		}
		if v.History[j].When != nil {
			tj = v.History[j].When.UnixMilli()
		}
		return ti > tj
	})
}

// Clone возвращает глубокую копию для снапшотов оптимистичных мутаций.
// Записи обслуживания неизменяемы, поэтому копируется только слайс.
func (v *Vehicle) Clone() *Vehicle {
	cp := *v
	if v.Year != nil {
		year := *v.Year
		cp.Year = &year
	}
	if v.CNHExpiry != nil {
		expiry := *v.CNHExpiry
		cp.CNHExpiry = &expiry
	}
	cp.History = make([]*Maintenance, len(v.History))
	copy(cp.History, v.History)
	return &cp
}

// Serialize выдает wire-форму автомобиля. Невалидные записи обслуживания
// отфильтровываются и никогда не уезжают в хранилище.
func (v *Vehicle) Serialize() VehicleRecord {
	rec := VehicleRecord{
		ID:                 v.ID,
		Model:              v.Model,
		Color:              v.Color,
		ImageRef:           v.ImageRef,
		Plate:              v.Plate,
		IsOn:               v.IsOn,
		Speed:              v.Speed,
		VariantTag:         string(v.Type),
		MaintenanceHistory: []MaintenanceEntry{},
	}
	if v.Year != nil {
		year := *v.Year
		rec.Year = &year
	}
	if v.CNHExpiry != nil {
		expiry := v.CNHExpiry.UTC().Format("2006-01-02")
		rec.CNHExpiry = &expiry
	}
	switch v.Type {
	case VehicleTypeSport:
		rec.TurboOn = v.TurboOn
	case VehicleTypeTruck:
		rec.CargoCapacity = v.CargoCapacity
		rec.CurrentCargo = v.CurrentCargo
	}
	for _, m := range v.History {
		if entry := m.Serialize(); entry != nil {
			rec.MaintenanceHistory = append(rec.MaintenanceHistory, *entry)
		}
	}
	return rec
}

// VehicleFromRecord восстанавливает автомобиль из wire-формы.
// Неизвестный или пустой тег варианта дает базовый автомобиль; запись
// обслуживания, которую не удалось восстановить, пропускается, остальная
// история сохраняется. Состояние приводится к инвариантам варианта.
func VehicleFromRecord(rec VehicleRecord) (*Vehicle, error) {
	draft := Draft{
		Type:          VehicleType(rec.VariantTag),
		Model:         rec.Model,
		Color:         rec.Color,
		ImageRef:      rec.ImageRef,
		Plate:         rec.Plate,
		CargoCapacity: rec.CargoCapacity,
	}
	if rec.Year != nil {
		draft.Year = *rec.Year
	}
	if rec.CNHExpiry != nil {
		draft.CNHExpiry = *rec.CNHExpiry
	}

	v, err := NewVehicle(rec.ID, draft)
	if err != nil {
		return nil, err
	}

	v.IsOn = rec.IsOn
	v.Speed = math.Min(math.Max(rec.Speed, 0), v.MaxSpeed())
	if v.Type == VehicleTypeSport {
		v.TurboOn = rec.TurboOn
	}
	if v.Type == VehicleTypeTruck {
		v.CurrentCargo = math.Min(math.Max(rec.CurrentCargo, 0), v.CargoCapacity)
	}
	for _, entry := range rec.MaintenanceHistory {
		if m := MaintenanceFromEntry(entry); m != nil {
			v.History = append(v.History, m)
		}
	}
	v.sortHistory()
	return v, nil
}
