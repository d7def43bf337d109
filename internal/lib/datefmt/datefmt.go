// Package datefmt разбирает и форматирует даты подписок в том виде, в котором
// их отдаёт API ("Fri 29 Aug, 2024"), и проверяет истечение срока с точностью до дня.
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

// Layout — формат дат начала и окончания подписки.
const Layout = "Mon 2 Jan, 2006"

// InputLayout задаёт формат даты из поля ввода (только дата).
const InputLayout = "2006-01-02"

// Parse разбирает строку вида "Fri 29 Aug, 2024" в полночь указанной зоны.
func Parse(s string, loc *time.Location) (time.Time, error) {
	const op = "datefmt.Parse"
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Format возвращает дату в формате Layout.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Midnight отбрасывает время суток, оставляя зону t.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Yesterday возвращает вчерашнюю дату относительно now в формате Layout.
func Yesterday(now time.Time) string {
	return Format(Midnight(now).AddDate(0, 0, -1))
}

// IsExpired сообщает, что endDate строго раньше начала дня now.
// Сегодняшняя дата истёкшей не считается. Нераспознанная дата не считается истёкшей.
func IsExpired(endDate string, now time.Time) bool {
	end, err := Parse(endDate, now.Location())
	if err != nil {
		return false
	}
	return end.Before(Midnight(now))
}

// FromInput переводит дату из поля ввода ("2024-08-29") в Layout.
func FromInput(s string, loc *time.Location) (string, error) {
	const op = "datefmt.FromInput"
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(InputLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return Format(t), nil
}
