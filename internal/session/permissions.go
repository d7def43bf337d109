package session

import (
	"slices"
	"strings"
)

// RoutePermissions — права, необходимые для открытия разделов панели.
var RoutePermissions = map[string]string{
	"/booking/create": "Create Booking",
	"/reports":        "View Reports",
	"/dashboard":      "View Dashboard",
	"/staff":          "View Staff",
	"/customers":      "View Customers",
	"/services":       "View Services",
	"/marketing":      "View Marketing",
	"/memberships":    "View Memberships",
	"/balance":        "View Balance",
	"/settings":       "View Settings",
	"/booking/edit":   "Edit Booking",
}

// AllPermissions возвращает все права из таблицы маршрутов в порядке сортировки.
func AllPermissions() []string {
	out := make([]string, 0, len(RoutePermissions))
	for _, p := range RoutePermissions {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// RequiredPermission возвращает право для пути. Совпадение ищется по самому
// длинному префиксу из целых сегментов: "/booking/edit/42" → "Edit Booking".
func RequiredPermission(path string) (string, bool) {
	path = "/" + strings.Trim(path, "/")
	for {
		if p, ok := RoutePermissions[path]; ok {
			return p, true
		}
		i := strings.LastIndex(path, "/")
		if i <= 0 {
			return "", false
		}
		path = path[:i]
	}
}

// CanAccess сообщает, можно ли открыть path с правами perms.
// Маршрут без требований открыт, маршрут с требованием закрыт, пока права нет.
func CanAccess(path string, perms []string) bool {
	required, ok := RequiredPermission(path)
	if !ok {
		return true
	}
	return slices.Contains(perms, required)
}
