package garage

import (
	"math"
	"sync"
	"time"

	"github.com/frontandrew/garage/internal/domain"
)

// CNHStatus - статус водительского удостоверения владельца относительно
// срока действия, записанного в автомобиле
type CNHStatus string

const (
	CNHStatusNone         CNHStatus = "none"
	CNHStatusOk           CNHStatus = "ok"
	CNHStatusExpiringSoon CNHStatus = "expiring_soon"
	CNHStatusExpired      CNHStatus = "expired"
)

// cnhWarningDays - за сколько дней до истечения показывается предупреждение
const cnhWarningDays = 30

// VehicleView - производное представление автомобиля для отрисовки.
// Считается заново из доменного состояния при каждом запросе: у
// представления нет собственного состояния, которое могло бы разойтись.
type VehicleView struct {
	ID      string
	Type    domain.VehicleType
	Model   string
	Color   string
	Plate   string
	Year    *int
	Image   string
	IsOn    bool
	Speed   float64
	TurboOn bool

	CargoCapacity float64
	CurrentCargo  float64

	// GaugeAngle - угол стрелки спидометра в градусах: -90 на нуле,
	// +90 на пределе варианта
	GaugeAngle float64

	// ProgressFraction - доля предела скорости, занятая текущей скоростью
	ProgressFraction float64

	CNHStatus     CNHStatus
	CNHDaysLeft   int
	CNHExpiry     *time.Time
	HistoryLines  []string
	ScheduleLines []string
}

// ViewState - состояние выбора и производных полей поверх коллекции.
// Подписывается на события репозитория: исчезновение активного
// автомобиля сбрасывает выбор, создание нового выбор не захватывает.
type ViewState struct {
	repo *Repository
	now  func() time.Time

	mu       sync.Mutex
	activeID string
}

// NewViewState создает состояние отображения и подписывает его на коллекцию
func NewViewState(repo *Repository) *ViewState {
	vs := &ViewState{
		repo: repo,
		now:  time.Now,
	}
	repo.Subscribe(vs.onEvent)
	return vs
}

func (vs *ViewState) onEvent(e Event) {
	switch e.Type {
	case EventSessionReset:
		vs.mu.Lock()
		vs.activeID = ""
		vs.mu.Unlock()
	case EventRemoved, EventLoaded:
		vs.mu.Lock()
		if vs.activeID != "" {
			if _, ok := vs.repo.Get(vs.activeID); !ok {
				vs.activeID = ""
			}
		}
		vs.mu.Unlock()
	}
}

// Select делает автомобиль активным
func (vs *ViewState) Select(id string) error {
	if _, ok := vs.repo.Get(id); !ok {
		return domain.ErrVehicleNotFound
	}
	vs.mu.Lock()
	vs.activeID = id
	vs.mu.Unlock()
	return nil
}

// Deselect сбрасывает выбор
func (vs *ViewState) Deselect() {
	vs.mu.Lock()
	vs.activeID = ""
	vs.mu.Unlock()
}

// ActiveID возвращает id активного автомобиля или пустую строку
func (vs *ViewState) ActiveID() string {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.activeID
}

// Active возвращает представление активного автомобиля.
// Второй результат false, когда ничего не выбрано.
func (vs *ViewState) Active() (VehicleView, bool) {
	vs.mu.Lock()
	id := vs.activeID
	vs.mu.Unlock()
	if id == "" {
		return VehicleView{}, false
	}
	v, ok := vs.repo.Get(id)
	if !ok {
		return VehicleView{}, false
	}
	return vs.buildView(v), true
}

// Views возвращает представления всех автомобилей в порядке коллекции
func (vs *ViewState) Views() []VehicleView {
	vehicles := vs.repo.List()
	views := make([]VehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		views = append(views, vs.buildView(v))
	}
	return views
}

func (vs *ViewState) buildView(v *domain.Vehicle) VehicleView {
	view := VehicleView{
		ID:               v.ID,
		Type:             v.Type,
		Model:            v.Model,
		Color:            v.Color,
		Plate:            v.Plate,
		Image:            v.ImageRef,
		IsOn:             v.IsOn,
		Speed:            v.Speed,
		TurboOn:          v.TurboOn,
		CargoCapacity:    v.CargoCapacity,
		CurrentCargo:     v.CurrentCargo,
		GaugeAngle:       gaugeAngle(v.Speed, v.MaxSpeed()),
		ProgressFraction: progressFraction(v.Speed, v.MaxSpeed()),
		CNHExpiry:        v.CNHExpiry,
	}
	if v.Year != nil {
		year := *v.Year
		view.Year = &year
	}
	view.CNHStatus, view.CNHDaysLeft = cnhStatus(v.CNHExpiry, vs.now())

	now := vs.now()
	for _, m := range v.History {
		if !m.IsValid() {
			continue
		}
		if m.When.After(now) {
			view.ScheduleLines = append(view.ScheduleLines, m.FormatScheduleLine())
		} else {
			view.HistoryLines = append(view.HistoryLines, m.FormatHistoryLine())
		}
	}
	return view
}

// gaugeAngle переводит скорость в угол стрелки: линейно от -90 до +90.
// Значения за пределами шкалы прижимаются к краям.
func gaugeAngle(speed, maxSpeed float64) float64 {
	if maxSpeed <= 0 {
		return -90
	}
	angle := (speed/maxSpeed)*180 - 90
	return math.Max(-90, math.Min(90, angle))
}

func progressFraction(speed, maxSpeed float64) float64 {
	if maxSpeed <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, speed/maxSpeed))
}

// cnhStatus сравнивает срок действия удостоверения с сегодняшним днем.
// Сравнение идет по календарным дням в UTC: удостоверение, истекающее
// сегодня, еще действует. Возвращает статус и число полных дней до
// истечения (для expired - отрицательное).
func cnhStatus(expiry *time.Time, now time.Time) (CNHStatus, int) {
	if expiry == nil {
		return CNHStatusNone, 0
	}
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	expiryDay := time.Date(expiry.UTC().Year(), expiry.UTC().Month(), expiry.UTC().Day(), 0, 0, 0, 0, time.UTC)

	days := int(expiryDay.Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return CNHStatusExpired, days
	case days <= cnhWarningDays:
		return CNHStatusExpiringSoon, days
	default:
		return CNHStatusOk, days
	}
}
