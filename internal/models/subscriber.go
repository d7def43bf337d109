package models

import (
	"time"

	"github.com/magabrotheeeer/salon-admin/internal/lib/datefmt"
)

// Status — производный статус подписчика. Не хранится, вычисляется
// при каждом обращении из IsCancelled, EndDate и текущей даты.
type Status string

const (
	StatusActive    Status = "Active"
	StatusCancelled Status = "Cancelled"
	StatusExpired   Status = "Expired"
)

// Subscriber — запись клиента в конкретном абонементе.
// StartDate и EndDate имеют вид "Fri 29 Aug, 2024".
type Subscriber struct {
	ID                ID     `json:"id"`
	CustomerName      string `json:"customer_name"`
	CustomerInitial   string `json:"customer_initial"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	RemainingBookings string `json:"remaining_bookings"`
	IsCancelled       bool   `json:"is_cancelled"`
}

// StatusAt возвращает статус подписчика на момент now.
func (s Subscriber) StatusAt(now time.Time) Status {
	if s.IsCancelled {
		return StatusCancelled
	}
	if datefmt.IsExpired(s.EndDate, now) {
		return StatusExpired
	}
	return StatusActive
}

// Initial возвращает первую букву имени клиента, если CustomerInitial пуст.
func (s Subscriber) Initial() string {
	if s.CustomerInitial != "" {
		return s.CustomerInitial
	}
	for _, r := range s.CustomerName {
		return string(r)
	}
	return ""
}
