// Package latest отслеживает поколения запросов, чтобы поздний ответ
// устаревшего запроса не перезаписал состояние, полученное более новым.
package latest

import "sync/atomic"

// Tracker выдаёт билеты поколений. Нулевое значение готово к работе.
type Tracker struct {
	gen atomic.Uint64
}

// Ticket выдаётся каждому запросу.
type Ticket struct {
	t   *Tracker
	gen uint64
}

// Begin начинает новое поколение. Все ранее выданные билеты устаревают.
func (t *Tracker) Begin() Ticket {
	return Ticket{t: t, gen: t.gen.Add(1)}
}

// Invalidate делает устаревшими все выданные билеты.
func (t *Tracker) Invalidate() {
	t.gen.Add(1)
}

// Current сообщает, что после выдачи билета новых поколений не начиналось.
func (k Ticket) Current() bool {
	return k.t != nil && k.t.gen.Load() == k.gen
}
