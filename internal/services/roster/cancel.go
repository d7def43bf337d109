package roster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/salon-admin/internal/events"
	"github.com/magabrotheeeer/salon-admin/internal/lib/datefmt"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// RequestCancel запоминает подписчика для отмены до подтверждения.
// Запрос возможен только из активной части списка и только для активного
// подписчика. Повторный запрос заменяет предыдущий. Пустой mode означает ModeCancel.
func (r *Roster) RequestCancel(id models.ID, mode Mode) (PendingCancel, error) {
	if mode == "" {
		mode = ModeCancel
	}
	if mode != ModeCancel && mode != ModeExpire {
		return PendingCancel{}, ErrUnknownMode
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filter != FilterActive {
		return PendingCancel{}, ErrNotActive
	}
	i := r.find(id)
	if i < 0 {
		return PendingCancel{}, ErrNotFound
	}
	s := r.subscribers[i]
	if s.StatusAt(r.now()) != models.StatusActive {
		return PendingCancel{}, ErrNotActive
	}

	r.pending = &PendingCancel{SubscriberID: s.ID, CustomerName: s.CustomerName, Mode: mode}
	return *r.pending, nil
}

// Pending возвращает незавершённую отмену.
func (r *Roster) Pending() (PendingCancel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pending == nil {
		return PendingCancel{}, false
	}
	return *r.pending, true
}

// Decline отказывается от отмены. Статус подписчика не меняется.
func (r *Roster) Decline() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// Confirm выполняет запрошенную отмену выбранным способом. Отмена снимается
// с ожидания до обращения к API, поэтому повторный Confirm получает
// ErrNoPendingCancel. При ошибке API она возвращается в ожидание.
func (r *Roster) Confirm(ctx context.Context) (models.Subscriber, error) {
	const op = "roster.Confirm"
	r.mu.Lock()
	if r.pending == nil {
		r.mu.Unlock()
		return models.Subscriber{}, ErrNoPendingCancel
	}
	p := *r.pending
	r.pending = nil
	r.mu.Unlock()

	var (
		s   models.Subscriber
		err error
	)
	switch p.Mode {
	case ModeExpire:
		s, err = r.ExpireNow(ctx, p.SubscriberID)
	default:
		s, err = r.Cancel(ctx, p.SubscriberID)
	}
	if err != nil {
		r.mu.Lock()
		if r.pending == nil && r.find(p.SubscriberID) >= 0 {
			r.pending = &p
		}
		r.mu.Unlock()
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Cancel отменяет подписку: после успеха API подписчик становится Cancelled.
func (r *Roster) Cancel(ctx context.Context, id models.ID) (models.Subscriber, error) {
	const op = "roster.Cancel"
	mID, err := r.activeSubscriber(id)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.api.CancelSubscriber(ctx, mID, id); err != nil {
		r.log.Error("failed to cancel subscription", sl.Op(op), slog.String("subscriber_id", id.String()), sl.Err(err))
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	s, err := r.update(id, func(s *models.Subscriber) { s.IsCancelled = true })
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("subscription cancelled", sl.Op(op), slog.String("membership_id", mID.String()), slog.String("subscriber_id", id.String()))
	r.publish(ctx, events.SubscriberCancelled, mID, id)
	return s, nil
}

// ExpireNow завершает подписку вчерашним днём: подписчик становится Expired.
func (r *Roster) ExpireNow(ctx context.Context, id models.ID) (models.Subscriber, error) {
	const op = "roster.ExpireNow"
	mID, err := r.activeSubscriber(id)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	endDate := datefmt.Yesterday(r.now())
	if err := r.api.ExpireSubscriber(ctx, mID, id, endDate); err != nil {
		r.log.Error("failed to expire subscription", sl.Op(op), slog.String("subscriber_id", id.String()), sl.Err(err))
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	s, err := r.update(id, func(s *models.Subscriber) { s.EndDate = endDate })
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("subscription expired", sl.Op(op), slog.String("membership_id", mID.String()), slog.String("subscriber_id", id.String()))
	r.publish(ctx, events.SubscriberExpired, mID, id)
	return s, nil
}

func (r *Roster) activeSubscriber(id models.ID) (models.ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.membershipID.IsZero() {
		return "", ErrNotLoaded
	}
	i := r.find(id)
	if i < 0 {
		return "", ErrNotFound
	}
	if r.subscribers[i].StatusAt(r.now()) != models.StatusActive {
		return "", ErrNotActive
	}
	return r.membershipID, nil
}

func (r *Roster) update(id models.ID, fn func(*models.Subscriber)) (models.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		// список перезагрузили, пока шёл запрос
		return models.Subscriber{}, ErrNotFound
	}
	fn(&r.subscribers[i])
	return r.subscribers[i], nil
}
