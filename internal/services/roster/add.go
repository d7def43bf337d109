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
	"github.com/magabrotheeeer/salon-admin/internal/lib/datefmt"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

var (
	ErrIncomplete      = errors.New("roster: start date and customer are required")
	ErrInvalidDate     = errors.New("roster: invalid start date")
	ErrUnknownCustomer = errors.New("roster: customer is not in search results")
)

// Add добавляет клиента в загруженный абонемент с датой начала в формате
// 2006-01-02 и дописывает созданную запись в список.
func (r *Roster) Add(ctx context.Context, customerID models.ID, startDate string) (models.Subscriber, error) {
	const op = "roster.Add"
	if customerID.IsZero() || strings.TrimSpace(startDate) == "" {
		return models.Subscriber{}, ErrIncomplete
	}
	if _, err := time.Parse(datefmt.InputLayout, strings.TrimSpace(startDate)); err != nil {
		return models.Subscriber{}, ErrInvalidDate
	}

	mID := r.MembershipID()
	if mID.IsZero() {
		return models.Subscriber{}, ErrNotLoaded
	}

	s, err := r.api.AddSubscriber(ctx, mID, adminapi.NewSubscriber{
		CustomerID: customerID,
		StartDate:  strings.TrimSpace(startDate),
	})
	if err != nil {
		r.log.Error("failed to add subscriber", sl.Op(op), slog.String("membership_id", mID.String()), sl.Err(err))
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	if r.membershipID == mID {
		r.subscribers = append(r.subscribers, s)
	}
	r.mu.Unlock()

	r.log.Info("subscriber added", sl.Op(op), slog.String("membership_id", mID.String()), slog.String("subscriber_id", s.ID.String()))
	r.publish(ctx, events.SubscriberAdded, mID, s.ID)
	return s, nil
}

// AddCustomer — форма добавления клиента в абонемент.
// Список найденных клиентов существует только для непустого запроса.
type AddCustomer struct {
	roster *Roster

	mu        sync.Mutex
	startDate string
	query     string
	results   []models.Customer
	selected  *models.Customer
}

// NewAddCustomer открывает форму добавления для загруженного абонемента.
func (r *Roster) NewAddCustomer() *AddCustomer {
	return &AddCustomer{roster: r}
}

// SetStartDate задаёт дату начала в формате 2006-01-02.
func (f *AddCustomer) SetStartDate(s string) error {
	s = strings.TrimSpace(s)
	if s != "" {
		if _, err := time.Parse(datefmt.InputLayout, s); err != nil {
			return ErrInvalidDate
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startDate = s
	return nil
}

// SearchCustomers ищет клиентов. Пустой запрос очищает результаты без обращения к API.
// Выбранный клиент сохраняется, пока он есть в новых результатах.
func (f *AddCustomer) SearchCustomers(ctx context.Context, q string) ([]models.Customer, error) {
	const op = "roster.AddCustomer.SearchCustomers"
	q = strings.TrimSpace(q)

	f.mu.Lock()
	f.query = q
	if q == "" {
		f.results = nil
		f.mu.Unlock()
		return nil, nil
	}
	f.mu.Unlock()

	found, err := f.roster.api.Customers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.query != q {
		// пока шёл запрос, строку поиска изменили
		return slices.Clone(f.results), nil
	}
	f.results = found
	if f.selected != nil && !slices.ContainsFunc(found, func(c models.Customer) bool { return c.ID == f.selected.ID }) {
		f.selected = nil
	}
	return slices.Clone(found), nil
}

// Results возвращает текущие результаты поиска.
func (f *AddCustomer) Results() []models.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.results)
}

// Select выбирает клиента из результатов поиска.
func (f *AddCustomer) Select(id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.results, func(c models.Customer) bool { return c.ID == id })
	if i < 0 {
		return ErrUnknownCustomer
	}
	c := f.results[i]
	f.selected = &c
	return nil
}

// Selected возвращает выбранного клиента.
func (f *AddCustomer) Selected() (models.Customer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		return models.Customer{}, false
	}
	return *f.selected, true
}

// CanSubmit сообщает, что выбраны и дата, и клиент.
func (f *AddCustomer) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startDate != "" && f.selected != nil
}

// Submit добавляет выбранного клиента и очищает форму.
func (f *AddCustomer) Submit(ctx context.Context) (models.Subscriber, error) {
	f.mu.Lock()
	if f.startDate == "" || f.selected == nil {
		f.mu.Unlock()
		return models.Subscriber{}, ErrIncomplete
	}
	customerID, startDate := f.selected.ID, f.startDate
	f.mu.Unlock()

	s, err := f.roster.Add(ctx, customerID, startDate)
	if err != nil {
		return models.Subscriber{}, err
	}

	f.mu.Lock()
	f.startDate, f.query, f.results, f.selected = "", "", nil, nil
	f.mu.Unlock()
	return s, nil
}
