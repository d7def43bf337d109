// Package events публикует события жизненного цикла абонементов и их подписчиков
// в RabbitMQ. Без настроенного брокера используется Noop.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// Type — тип события, он же routing key.
type Type string

const (
	SubscriberAdded     Type = "subscriber.added"
	SubscriberCancelled Type = "subscriber.cancelled"
	SubscriberExpired   Type = "subscriber.expired"
	MembershipToggled   Type = "membership.toggled"
)

// Event описывает изменение абонемента или подписки.
type Event struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	MembershipID models.ID `json:"membership_id"`
	SubscriberID models.ID `json:"subscriber_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// New создаёт событие с новым идентификатором.
func New(typ Type, membershipID, subscriberID models.ID) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         typ,
		MembershipID: membershipID,
		SubscriberID: subscriberID,
		OccurredAt:   time.Now().UTC(),
	}
}

// Publisher отправляет события.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop отбрасывает события.
type Noop struct{}

// Publish ничего не делает.
func (Noop) Publish(context.Context, Event) error { return nil }
