// Package models содержит доменные структуры панели администратора салона:
// пользователя, филиал, абонемент, подписчика и клиента.
package models

// User представляет авторизованного сотрудника салона.
// Permissions — единственный источник истины для проверки прав.
type User struct {
	ID          ID       `json:"id"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
	Branch      *Branch  `json:"branch,omitempty"`
}

// Branch — филиал салона, в рамках которого живут записи, сотрудники и права.
type Branch struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
}
