// Package pagination нарезает отфильтрованные списки на страницы фиксированного размера.
package pagination

// PageSize — размер страницы каталога абонементов и списка подписчиков.
const PageSize = 12

// Info описывает текущую страницу для отображения.
type Info struct {
	Page       int `json:"page"`        // текущая страница, с 1
	PerPage    int `json:"per_page"`    // строк на странице
	Total      int `json:"total"`       // всего строк после фильтрации
	TotalPages int `json:"total_pages"` // ceil(Total / PerPage), минимум 1
}

// NewInfo вычисляет метаданные страницы. Page прижимается к [1, TotalPages].
func NewInfo(page, perPage, total int) Info {
	if perPage < 1 {
		perPage = PageSize
	}
	if total < 0 {
		total = 0
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return Info{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset возвращает индекс первого элемента страницы.
func (p Info) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// End возвращает индекс за последним элементом страницы.
func (p Info) End() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// HasNext сообщает, есть ли следующая страница.
func (p Info) HasNext() bool {
	return p.Page < p.TotalPages
}

// Slice возвращает элементы страницы page и её метаданные.
func Slice[T any](items []T, page, perPage int) ([]T, Info) {
	info := NewInfo(page, perPage, len(items))
	out := make([]T, info.End()-info.Offset())
	copy(out, items[info.Offset():info.End()])
	return out, info
}
