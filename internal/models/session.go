package models

// Session — результат успешного входа после нормализации ответа API.
type Session struct {
	Token    string   `json:"token"`
	User     *User    `json:"user,omitempty"`
	Branches []Branch `json:"branches"`
}
