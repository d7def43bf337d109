package models

// Plan — абонемент из каталога. Price и Duration хранятся в том виде,
// в котором их показывает API ("$99.00", "3 Months").
type Plan struct {
	ID       ID     `json:"id"`
	Title    string `json:"title" validate:"required"`
	Price    string `json:"price" validate:"required"`
	Duration string `json:"duration" validate:"required"`
	IsActive bool   `json:"is_active"`
}

// Customer описывает клиента салона, которого можно добавить в абонемент.
type Customer struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
