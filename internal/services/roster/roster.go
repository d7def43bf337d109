// Package roster ведёт список подписчиков одного абонемента: делит его на
// активных и отменённых/истёкших, ищет по имени, листает страницы и проводит
// отмену подписки и добавление клиента.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/salon-admin/internal/adminapi"
	"github.com/magabrotheeeer/salon-admin/internal/events"
	"github.com/magabrotheeeer/salon-admin/internal/lib/latest"
	"github.com/magabrotheeeer/salon-admin/internal/lib/pagination"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

var (
	ErrNotFound        = errors.New("roster: subscriber not found")
	ErrNotActive       = errors.New("roster: subscriber is not active")
	ErrNoPendingCancel = errors.New("roster: no pending cancellation")
	ErrNotLoaded       = errors.New("roster: no membership loaded")
	ErrStale           = errors.New("roster: stale response")
	ErrUnknownFilter   = errors.New("roster: unknown filter")
	ErrUnknownMode     = errors.New("roster: unknown cancel mode")
)

// Filter выбирает одну из двух частей списка.
type Filter string

const (
	FilterActive             Filter = "active"
	FilterCancelledOrExpired Filter = "cancelled_or_expired"
)

// Mode — что делает подтверждённая отмена.
type Mode string

const (
	// ModeCancel помечает подписку отменённой.
	ModeCancel Mode = "cancel"
	// ModeExpire завершает подписку вчерашним днём.
	ModeExpire Mode = "expire"
)

// API — вызовы REST API, нужные списку подписчиков.
type API interface {
	Subscribers(ctx context.Context, membershipID models.ID) ([]models.Subscriber, error)
	AddSubscriber(ctx context.Context, membershipID models.ID, req adminapi.NewSubscriber) (models.Subscriber, error)
	CancelSubscriber(ctx context.Context, membershipID, subscriberID models.ID) error
	ExpireSubscriber(ctx context.Context, membershipID, subscriberID models.ID, endDate string) error
	Customers(ctx context.Context, search string) ([]models.Customer, error)
}

// PendingCancel — запрошенная, но не подтверждённая отмена.
type PendingCancel struct {
	SubscriberID models.ID `json:"subscriber_id"`
	CustomerName string    `json:"customer_name"`
	Mode         Mode      `json:"mode"`
}

// Row — строка таблицы подписчиков.
type Row struct {
	models.Subscriber
	Status models.Status `json:"status"`
}

// View — то, что показывает таблица подписчиков.
type View struct {
	MembershipID models.ID       `json:"membership_id"`
	Filter       Filter          `json:"filter"`
	Query        string          `json:"query,omitempty"`
	Items        []Row           `json:"items"`
	Pagination   pagination.Info `json:"pagination"`
	ActiveCount  int             `json:"active_count"`
	EndedCount   int             `json:"cancelled_or_expired_count"`
	Pending      *PendingCancel  `json:"pending_cancel,omitempty"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
}

// Roster — подписчики одного абонемента и состояние таблицы.
type Roster struct {
	api       API
	publisher events.Publisher
	log       *slog.Logger
	gen       latest.Tracker
	now       func() time.Time

	mu           sync.RWMutex
	membershipID models.ID
	subscribers  []models.Subscriber
	filter       Filter
	query        string
	page         int
	pending      *PendingCancel
	loading      bool
	loadErr      error
}

// New создаёт пустой список. publisher может быть nil.
func New(api API, publisher events.Publisher, log *slog.Logger) *Roster {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Roster{
		api:       api,
		publisher: publisher,
		log:       sl.OrDiscard(log),
		now:       time.Now,
		filter:    FilterActive,
		page:      1,
	}
}

// Load загружает подписчиков абонемента и сбрасывает фильтр, поиск, страницу
// и незавершённую отмену. Ответ устаревшего запроса отбрасывается с ErrStale.
func (r *Roster) Load(ctx context.Context, membershipID models.ID) error {
	const op = "roster.Load"
	ticket := r.gen.Begin()

	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	subs, err := r.api.Subscribers(ctx, membershipID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !ticket.Current() {
		r.log.Debug("dropping stale subscribers response", sl.Op(op), slog.String("membership_id", membershipID.String()))
		return ErrStale
	}
	r.loading = false
	r.membershipID = membershipID
	r.filter = FilterActive
	r.query = ""
	r.page = 1
	r.pending = nil
	if err != nil {
		r.subscribers = nil
		r.loadErr = err
		r.log.Error("failed to load subscribers", sl.Op(op), slog.String("membership_id", membershipID.String()), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	r.loadErr = nil
	r.subscribers = subs
	return nil
}

// Reload повторно загружает текущий абонемент.
func (r *Roster) Reload(ctx context.Context) error {
	r.mu.RLock()
	id := r.membershipID
	r.mu.RUnlock()
	if id.IsZero() {
		return ErrNotLoaded
	}
	return r.Load(ctx, id)
}

// Reset забывает абонемент, например при смене филиала.
func (r *Roster) Reset() {
	r.gen.Invalidate()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.membershipID = ""
	r.subscribers = nil
	r.filter = FilterActive
	r.query = ""
	r.page = 1
	r.pending = nil
	r.loading = false
	r.loadErr = nil
}

// MembershipID возвращает загруженный абонемент.
func (r *Roster) MembershipID() models.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.membershipID
}

// SetFilter переключает часть списка; при смене страница сбрасывается на первую.
func (r *Roster) SetFilter(f Filter) error {
	if f != FilterActive && f != FilterCancelledOrExpired {
		return ErrUnknownFilter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f != r.filter {
		r.page = 1
	}
	r.filter = f
	return nil
}

// Search задаёт поиск по имени клиента; при смене запроса страница сбрасывается.
func (r *Roster) Search(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q != r.query {
		r.page = 1
	}
	r.query = q
}

// SetPage переключает страницу.
func (r *Roster) SetPage(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 {
		n = 1
	}
	r.page = n
}

// View возвращает текущую страницу выбранной части списка.
func (r *Roster) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	active, ended := Partition(r.subscribers, now)
	part := active
	if r.filter == FilterCancelledOrExpired {
		part = ended
	}
	part = SearchByName(part, r.query)
	page, info := pagination.Slice(part, r.page, pagination.PageSize)

	rows := make([]Row, 0, len(page))
	for _, s := range page {
		if s.CustomerInitial == "" {
			s.CustomerInitial = s.Initial()
		}
		rows = append(rows, Row{Subscriber: s, Status: s.StatusAt(now)})
	}

	v := View{
		MembershipID: r.membershipID,
		Filter:       r.filter,
		Query:        r.query,
		Items:        rows,
		Pagination:   info,
		ActiveCount:  len(active),
		EndedCount:   len(ended),
		Loading:      r.loading,
	}
	if r.pending != nil {
		p := *r.pending
		v.Pending = &p
	}
	if r.loadErr != nil {
		v.Error = "Failed to load subscribers"
	}
	return v
}

// Subscribers возвращает копию всех подписчиков.
func (r *Roster) Subscribers() []models.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.subscribers)
}

// Partition делит подписчиков на активных и отменённых/истёкших на момент now.
// Каждый подписчик попадает ровно в одну часть, порядок сохраняется.
func Partition(subs []models.Subscriber, now time.Time) (active, ended []models.Subscriber) {
	active = make([]models.Subscriber, 0, len(subs))
	ended = make([]models.Subscriber, 0)
	for _, s := range subs {
		if s.StatusAt(now) == models.StatusActive {
			active = append(active, s)
		} else {
			ended = append(ended, s)
		}
	}
	return active, ended
}

// SearchByName оставляет подписчиков, в имени которых есть q без учёта регистра.
func SearchByName(subs []models.Subscriber, q string) []models.Subscriber {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return subs
	}
	out := make([]models.Subscriber, 0, len(subs))
	for _, s := range subs {
		if strings.Contains(strings.ToLower(s.CustomerName), q) {
			out = append(out, s)
		}
	}
	return out
}

// find вызывается под r.mu.
func (r *Roster) find(id models.ID) int {
	return slices.IndexFunc(r.subscribers, func(s models.Subscriber) bool { return s.ID == id })
}

func (r *Roster) publish(ctx context.Context, typ events.Type, membershipID, subscriberID models.ID) {
	const op = "roster.publish"
	if err := r.publisher.Publish(ctx, events.New(typ, membershipID, subscriberID)); err != nil {
		r.log.Warn("failed to publish event", sl.Op(op), slog.String("type", string(typ)), sl.Err(err))
	}
}
