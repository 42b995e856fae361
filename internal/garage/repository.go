package garage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/google/uuid"
)

// Action - локальная операция над автомобилем, не требующая сохранения
type Action string

const (
	ActionPowerOn     Action = "power_on"
	ActionPowerOff    Action = "power_off"
	ActionAccelerate  Action = "accelerate"
	ActionBrake       Action = "brake"
	ActionHonk        Action = "honk"
	ActionToggleTurbo Action = "toggle_turbo"
)

// EventType - тип события изменения коллекции
type EventType string

const (
	EventLoaded         EventType = "loaded"
	EventCreated        EventType = "created"
	EventUpdated        EventType = "updated"
	EventRemoved        EventType = "removed"
	EventVehicleChanged EventType = "vehicle_changed"
	EventSessionReset   EventType = "session_reset"
)

// Event публикуется подписчикам после каждого успешного изменения.
// Доменные методы сами не трогают представление: слой отображения
// подписывается и перерисовывается по событиям.
type Event struct {
	Type      EventType
	VehicleID string
}

// Repository - клиентская коллекция автомобилей аккаунта.
// Живет только в памяти сессии; источник истины - Store.
// Мутации оптимистичны: изменение применяется локально, отправляется в
// хранилище и откатывается при неудаче сохранения, чтобы коллекция
// никогда не расходилась с сохраненным состоянием.
type Repository struct {
	store  Store
	logger logger.Logger

	mu       sync.Mutex
	vehicles map[string]*domain.Vehicle
	inflight map[string]struct{}
	seq      map[string]uint64

	subMu       sync.RWMutex
	subscribers []func(Event)
}

// NewRepository создает пустую коллекцию поверх хранилища
func NewRepository(store Store, logger logger.Logger) *Repository {
	return &Repository{
		store:    store,
		logger:   logger,
		vehicles: make(map[string]*domain.Vehicle),
		inflight: make(map[string]struct{}),
		seq:      make(map[string]uint64),
	}
}

// Subscribe регистрирует подписчика на события коллекции
func (r *Repository) Subscribe(fn func(Event)) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

func (r *Repository) emit(e Event) {
	r.subMu.RLock()
	subs := make([]func(Event), len(r.subscribers))
	copy(subs, r.subscribers)
	r.subMu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// begin помечает операцию как выполняющуюся и фиксирует номер поколения
// цели. Повторная отправка той же операции до завершения первой отклоняется:
// защита от двойного сабмита.
func (r *Repository) begin(target string, op string) (uint64, error) {
	key := target + ":" + op
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[key]; busy {
		return 0, fmt.Errorf("%w: %s on %s", domain.ErrOperationInFlight, op, target)
	}
	r.inflight[key] = struct{}{}
	r.seq[target]++
	return r.seq[target], nil
}

func (r *Repository) end(target, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, target+":"+op)
}

// stale сообщает, что для цели успел стартовать более новый запрос
// и текущий результат нужно отбросить
func (r *Repository) stale(target string, seq uint64) bool {
	return r.seq[target] != seq
}

// LoadAll загружает все автомобили аккаунта и атомарно заменяет коллекцию.
// Автомобиль, который не удалось восстановить, пропускается; испорченные
// записи обслуживания отбрасываются внутри восстановления поштучно.
// Отказ авторизации сбрасывает сессию целиком.
func (r *Repository) LoadAll(ctx context.Context) error {
	const target = "collection"
	seq, err := r.begin(target, "load")
	if err != nil {
		return err
	}
	defer r.end(target, "load")

	records, err := r.store.FetchVehicles(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			r.Reset()
			return domain.ErrAuthExpired
		}
		return fmt.Errorf("failed to load garage: %w", err)
	}

	loaded := make(map[string]*domain.Vehicle, len(records))
	for _, rec := range records {
		v, err := domain.VehicleFromRecord(rec)
		if err != nil {
			r.logger.Warn("Skipping vehicle that failed to reconstruct", map[string]interface{}{
				"vehicle_id": rec.ID,
				"error":      err.Error(),
			})
			continue
		}
		loaded[v.ID] = v
	}

	r.mu.Lock()
	if r.stale(target, seq) {
		r.mu.Unlock()
		r.logger.Warn("Discarding stale garage load")
		return nil
	}
	r.vehicles = loaded
	r.mu.Unlock()

	r.emit(Event{Type: EventLoaded})
	return nil
}

// Create строит локальный автомобиль из черновика и отправляет его в
// хранилище. Вставка в коллекцию откладывается до подтверждения, поэтому
// при неудаче откатывать нечего. Ключом служит id, назначенный сервером.
func (r *Repository) Create(ctx context.Context, draft domain.Draft) (*domain.Vehicle, error) {
	v, err := domain.NewVehicle(uuid.NewString(), draft)
	if err != nil {
		return nil, err
	}

	localID := v.ID
	seq, err := r.begin(localID, "create")
	if err != nil {
		return nil, err
	}
	defer r.end(localID, "create")

	saved, err := r.store.CreateVehicle(ctx, v.Serialize())
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	// Ключом в коллекции служит id, назначенный хранилищем
	v.ID = saved.ID

	r.mu.Lock()
	if r.stale(localID, seq) {
		r.mu.Unlock()
		return v, nil
	}
	r.vehicles[v.ID] = v
	r.mu.Unlock()

	r.emit(Event{Type: EventCreated, VehicleID: v.ID})
	return v, nil
}

// Patch - редактируемые поля автомобиля. Применяется целиком, как форма
// редактирования: пустой ImageRef оставляет прежнее изображение.
type Patch struct {
	Model     string
	Color     string
	Plate     string
	Year      int
	CNHExpiry string
	ImageRef  string
}

// Update оптимистично применяет правку и фиксирует ее в хранилище.
// При неудаче сохранения локальное состояние откатывается к снапшоту.
func (r *Repository) Update(ctx context.Context, id string, patch Patch) error {
	seq, err := r.begin(id, "update")
	if err != nil {
		return err
	}
	defer r.end(id, "update")

	r.mu.Lock()
	v, ok := r.vehicles[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrVehicleNotFound
	}
	if patch.Model == "" {
		r.mu.Unlock()
		return domain.ErrModelRequired
	}
	snapshot := v.Clone()
	applyPatch(v, patch)
	rec := v.Serialize()
	r.mu.Unlock()

	if _, err := r.store.UpdateVehicle(ctx, id, rec); err != nil {
		r.rollback(id, seq, snapshot)
		return fmt.Errorf("failed to save vehicle: %w", err)
	}

	r.emit(Event{Type: EventUpdated, VehicleID: id})
	return nil
}

func applyPatch(v *domain.Vehicle, p Patch) {
	v.Model = p.Model
	v.Color = p.Color
	v.Plate = domain.NormalizePlate(p.Plate)
	v.Year = nil
	if p.Year > 0 {
		year := p.Year
		v.Year = &year
	}
	v.CNHExpiry = domain.ParseCNHDate(p.CNHExpiry)
	if p.ImageRef != "" {
		v.ImageRef = p.ImageRef
	}
}

// rollback возвращает автомобиль к снапшоту, если он все еще в коллекции
// и за время запроса не стартовала более новая операция над ним
func (r *Repository) rollback(id string, seq uint64, snapshot *domain.Vehicle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[id]; !ok || r.stale(id, seq) {
		return
	}
	r.vehicles[id] = snapshot
}

// AddMaintenance вставляет запись обслуживания и сохраняет автомобиль.
// Невалидная запись отклоняется без обращения к хранилищу; неудачное
// сохранение откатывает вставку, история возвращается к прежнему виду.
func (r *Repository) AddMaintenance(ctx context.Context, id string, m *domain.Maintenance) error {
	seq, err := r.begin(id, "maintenance")
	if err != nil {
		return err
	}
	defer r.end(id, "maintenance")

	r.mu.Lock()
	v, ok := r.vehicles[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrVehicleNotFound
	}
	snapshot := v.Clone()
	if err := v.AddMaintenance(m); err != nil {
		r.mu.Unlock()
		return err
	}
	rec := v.Serialize()
	r.mu.Unlock()

	if _, err := r.store.UpdateVehicle(ctx, id, rec); err != nil {
		r.rollback(id, seq, snapshot)
		return fmt.Errorf("failed to save maintenance: %w", err)
	}

	r.emit(Event{Type: EventUpdated, VehicleID: id})
	return nil
}

// ClearMaintenanceHistory очищает историю с тем же правилом отката
func (r *Repository) ClearMaintenanceHistory(ctx context.Context, id string) error {
	seq, err := r.begin(id, "maintenance")
	if err != nil {
		return err
	}
	defer r.end(id, "maintenance")

	r.mu.Lock()
	v, ok := r.vehicles[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrVehicleNotFound
	}
	snapshot := v.Clone()
	v.ClearMaintenanceHistory()
	rec := v.Serialize()
	r.mu.Unlock()

	if _, err := r.store.UpdateVehicle(ctx, id, rec); err != nil {
		r.rollback(id, seq, snapshot)
		return fmt.Errorf("failed to save cleared history: %w", err)
	}

	r.emit(Event{Type: EventUpdated, VehicleID: id})
	return nil
}

// Remove удаляет автомобиль. Удаление никогда не бывает молчаливым:
// вызывающий обязан передать подтверждение пользователя. Локально
// автомобиль исчезает только после подтверждения хранилищем.
func (r *Repository) Remove(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return domain.ErrNotConfirmed
	}

	_, err := r.begin(id, "remove")
	if err != nil {
		return err
	}
	defer r.end(id, "remove")

	r.mu.Lock()
	if _, ok := r.vehicles[id]; !ok {
		r.mu.Unlock()
		return domain.ErrVehicleNotFound
	}
	r.mu.Unlock()

	if err := r.store.DeleteVehicle(ctx, id); err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	r.mu.Lock()
	delete(r.vehicles, id)
	r.mu.Unlock()

	r.emit(Event{Type: EventRemoved, VehicleID: id})
	return nil
}

// Interact выполняет локальную операцию над автомобилем: зажигание,
// газ, тормоз, сигнал, турбо. Эти операции не сохраняются (как в исходном
// приложении); событие уходит слою отображения даже для сигнала.
func (r *Repository) Interact(id string, action Action) error {
	r.mu.Lock()
	v, ok := r.vehicles[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrVehicleNotFound
	}

	var err error
	switch action {
	case ActionPowerOn:
		err = v.PowerOn()
	case ActionPowerOff:
		err = v.PowerOff()
	case ActionAccelerate:
		err = v.Accelerate()
	case ActionBrake:
		err = v.Brake()
	case ActionHonk:
		err = v.Honk()
	case ActionToggleTurbo:
		err = v.ToggleTurbo()
	default:
		err = domain.ErrUnsupportedAction
	}
	r.mu.Unlock()

	if err != nil {
		return err
	}
	r.emit(Event{Type: EventVehicleChanged, VehicleID: id})
	return nil
}

// LoadCargo догружает грузовик (локальная операция, не сохраняется)
func (r *Repository) LoadCargo(id string, weight float64) error {
	r.mu.Lock()
	v, ok := r.vehicles[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrVehicleNotFound
	}
	err := v.LoadCargo(weight)
	r.mu.Unlock()

	if err != nil {
		return err
	}
	r.emit(Event{Type: EventVehicleChanged, VehicleID: id})
	return nil
}

// Get возвращает автомобиль по id
func (r *Repository) Get(id string) (*domain.Vehicle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	return v, ok
}

// List возвращает автомобили, отсортированные по модели.
// У коллекции нет собственного порядка, сортировка дает детерминизм
// отображения.
func (r *Repository) List() []*domain.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Model < out[j].Model
	})
	return out
}

// Len возвращает размер коллекции
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vehicles)
}

// Reset очищает коллекцию и учетные данные: выход или истекшая сессия.
// Сохраненные данные не трогаются.
func (r *Repository) Reset() {
	r.mu.Lock()
	r.vehicles = make(map[string]*domain.Vehicle)
	r.mu.Unlock()

	r.store.ClearCredential()
	r.emit(Event{Type: EventSessionReset})
}
