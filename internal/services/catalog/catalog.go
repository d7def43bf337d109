// Package catalog содержит логику каталога абонементов: загрузку из API,
// сортировку, поиск, пагинацию и переключение активности.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/salon-admin/internal/events"
	"github.com/magabrotheeeer/salon-admin/internal/lib/latest"
	"github.com/magabrotheeeer/salon-admin/internal/lib/pagination"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

var (
	// ErrNotFound — абонемента с таким ID нет в каталоге.
	ErrNotFound = errors.New("catalog: membership not found")
	// ErrUnknownColumn — сортировка по неизвестному столбцу.
	ErrUnknownColumn = errors.New("catalog: unknown sort column")
	// ErrStale — ответ пришёл после более нового запроса и отброшен.
	ErrStale = errors.New("catalog: stale response")
)

// Column — столбец сортировки.
type Column string

const (
	ColumnTitle    Column = "title"
	ColumnPrice    Column = "price"
	ColumnDuration Column = "duration"
)

// Direction — направление сортировки.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// API — вызовы REST API, нужные каталогу.
type API interface {
	Memberships(ctx context.Context) ([]models.Plan, error)
	CreateMembership(ctx context.Context, plan models.Plan) (models.Plan, error)
	UpdateMembership(ctx context.Context, plan models.Plan) (models.Plan, error)
	DeleteMembership(ctx context.Context, id models.ID) error
}

// View — то, что показывает таблица каталога.
type View struct {
	Items      []models.Plan   `json:"items"`
	Pagination pagination.Info `json:"pagination"`
	SortColumn Column          `json:"sort_column,omitempty"`
	SortDir    Direction       `json:"sort_direction,omitempty"`
	Query      string          `json:"query,omitempty"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
}

// Catalog хранит абонементы текущего филиала и состояние таблицы.
type Catalog struct {
	api       API
	publisher events.Publisher
	log       *slog.Logger
	validate  *validator.Validate
	gen       latest.Tracker

	mu      sync.RWMutex
	plans   []models.Plan
	sortCol Column
	sortDir Direction
	query   string
	page    int
	loading bool
	loaded  bool
	loadErr error
}

// New создаёт пустой каталог. publisher может быть nil.
func New(api API, publisher events.Publisher, log *slog.Logger) *Catalog {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Catalog{
		api:       api,
		publisher: publisher,
		log:       sl.OrDiscard(log),
		validate:  validator.New(),
		page:      1,
	}
}

// Load загружает каталог. Если за время запроса начата новая загрузка или
// вызван Reset, результат отбрасывается и возвращается ErrStale.
func (c *Catalog) Load(ctx context.Context) error {
	const op = "catalog.Load"
	ticket := c.gen.Begin()

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	plans, err := c.api.Memberships(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ticket.Current() {
		c.log.Debug("dropping stale memberships response", sl.Op(op))
		return ErrStale
	}
	c.loading = false
	if err != nil {
		c.loadErr = err
		c.log.Error("failed to load memberships", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	c.loadErr = nil
	c.loaded = true
	c.plans = plans
	c.page = 1
	c.log.Info("memberships loaded", sl.Op(op), slog.Int("count", len(plans)))
	return nil
}

// Reset очищает каталог и делает устаревшими незавершённые загрузки.
// Вызывается при смене филиала.
func (c *Catalog) Reset() {
	c.gen.Invalidate()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = nil
	c.query = ""
	c.page = 1
	c.loading = false
	c.loaded = false
	c.loadErr = nil
}

// Sort сортирует по столбцу. Повторный вызов для того же столбца меняет
// направление, новый столбец сортируется по возрастанию.
func (c *Catalog) Sort(col Column) error {
	switch col {
	case ColumnTitle, ColumnPrice, ColumnDuration:
	default:
		return ErrUnknownColumn
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sortCol == col {
		if c.sortDir == Asc {
			c.sortDir = Desc
		} else {
			c.sortDir = Asc
		}
		return nil
	}
	c.sortCol = col
	c.sortDir = Asc
	return nil
}

// Search задаёт строку поиска. Страница сбрасывается на первую, если запрос изменился.
func (c *Catalog) Search(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q != c.query {
		c.page = 1
	}
	c.query = q
}

// SetPage переключает страницу. Номер прижимается к допустимому диапазону при выводе.
func (c *Catalog) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	c.page = n
}

// View возвращает отсортированную, отфильтрованную страницу каталога.
func (c *Catalog) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows := SortPlans(c.plans, c.sortCol, c.sortDir)
	rows = FilterPlans(rows, c.query)
	items, info := pagination.Slice(rows, c.page, pagination.PageSize)

	v := View{
		Items:      items,
		Pagination: info,
		SortColumn: c.sortCol,
		SortDir:    c.sortDir,
		Query:      c.query,
		Loading:    c.loading,
	}
	if c.loadErr != nil {
		v.Error = "Failed to load memberships"
	}
	return v
}

// Loaded сообщает, что каталог текущего филиала уже загружен.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Plans возвращает копию всех абонементов без фильтров.
func (c *Catalog) Plans() []models.Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.plans)
}

// Get возвращает абонемент по ID.
func (c *Catalog) Get(id models.ID) (models.Plan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.index(id)
	if i < 0 {
		return models.Plan{}, ErrNotFound
	}
	return c.plans[i], nil
}

// ToggleActive меняет флаг активности ровно одного абонемента и сохраняет его через API.
// При ошибке API локальное состояние не меняется.
func (c *Catalog) ToggleActive(ctx context.Context, id models.ID) (models.Plan, error) {
	const op = "catalog.ToggleActive"

	plan, err := c.Get(id)
	if err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}
	plan.IsActive = !plan.IsActive

	saved, err := c.api.UpdateMembership(ctx, plan)
	if err != nil {
		c.log.Error("failed to toggle membership", sl.Op(op), slog.String("id", id.String()), sl.Err(err))
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}

	c.replace(saved)
	c.log.Info("membership toggled", sl.Op(op), slog.String("id", id.String()), slog.Bool("is_active", saved.IsActive))
	if err := c.publisher.Publish(ctx, events.New(events.MembershipToggled, saved.ID, "")); err != nil {
		c.log.Warn("failed to publish event", sl.Op(op), sl.Err(err))
	}
	return saved, nil
}

// Create проверяет и создаёт абонемент.
func (c *Catalog) Create(ctx context.Context, plan models.Plan) (models.Plan, error) {
	const op = "catalog.Create"
	if err := c.validate.Struct(plan); err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := c.api.CreateMembership(ctx, plan)
	if err != nil {
		c.log.Error("failed to create membership", sl.Op(op), sl.Err(err))
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	c.plans = append(c.plans, created)
	c.mu.Unlock()
	c.log.Info("membership created", sl.Op(op), slog.String("id", created.ID.String()))
	return created, nil
}

// Update проверяет и сохраняет изменения абонемента.
func (c *Catalog) Update(ctx context.Context, plan models.Plan) (models.Plan, error) {
	const op = "catalog.Update"
	if err := c.validate.Struct(plan); err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := c.Get(plan.ID); err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := c.api.UpdateMembership(ctx, plan)
	if err != nil {
		c.log.Error("failed to update membership", sl.Op(op), slog.String("id", plan.ID.String()), sl.Err(err))
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}
	c.replace(saved)
	return saved, nil
}

// Delete удаляет абонемент.
func (c *Catalog) Delete(ctx context.Context, id models.ID) error {
	const op = "catalog.Delete"
	if _, err := c.Get(id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.api.DeleteMembership(ctx, id); err != nil {
		c.log.Error("failed to delete membership", sl.Op(op), slog.String("id", id.String()), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		c.plans = slices.Delete(c.plans, i, i+1)
	}
	c.log.Info("membership deleted", sl.Op(op), slog.String("id", id.String()))
	return nil
}

func (c *Catalog) replace(plan models.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(plan.ID); i >= 0 {
		c.plans[i] = plan
	}
}

// index вызывается под c.mu.
func (c *Catalog) index(id models.ID) int {
	return slices.IndexFunc(c.plans, func(p models.Plan) bool { return p.ID == id })
}

// SortPlans возвращает отсортированную копию. Сортировка стабильная; пустой
// столбец оставляет исходный порядок.
func SortPlans(plans []models.Plan, col Column, dir Direction) []models.Plan {
	out := slices.Clone(plans)
	var cmp func(a, b models.Plan) int
	switch col {
	case ColumnTitle:
		cmp = func(a, b models.Plan) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case ColumnDuration:
		cmp = func(a, b models.Plan) int {
			return strings.Compare(strings.ToLower(a.Duration), strings.ToLower(b.Duration))
		}
	case ColumnPrice:
		cmp = func(a, b models.Plan) int {
			pa, pb := ParsePrice(a.Price), ParsePrice(b.Price)
			switch {
			case pa < pb:
				return -1
			case pa > pb:
				return 1
			}
			return 0
		}
	default:
		return out
	}
	if dir == Desc {
		asc := cmp
		cmp = func(a, b models.Plan) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// FilterPlans оставляет абонементы, у которых название, цена или срок
// содержат q без учёта регистра. Пустой q ничего не отбрасывает.
func FilterPlans(plans []models.Plan, q string) []models.Plan {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return plans
	}
	out := make([]models.Plan, 0, len(plans))
	for _, p := range plans {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Price), q) ||
			strings.Contains(strings.ToLower(p.Duration), q) {
			out = append(out, p)
		}
	}
	return out
}

// ParsePrice извлекает число из строки цены, отбрасывая всё, кроме цифр и точек:
// "$1,299.00" → 1299. Нераспознанная цена считается нулевой.
func ParsePrice(s string) float64 {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}
