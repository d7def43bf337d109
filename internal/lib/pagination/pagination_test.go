package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInfo(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		wantPage, wantPages  int
		wantOffset, wantEnd  int
	}{
		{name: "first page", page: 1, perPage: 12, total: 30, wantPage: 1, wantPages: 3, wantOffset: 0, wantEnd: 12},
		{name: "last partial page", page: 3, perPage: 12, total: 30, wantPage: 3, wantPages: 3, wantOffset: 24, wantEnd: 30},
		{name: "page past the end is clamped", page: 9, perPage: 12, total: 30, wantPage: 3, wantPages: 3, wantOffset: 24, wantEnd: 30},
		{name: "zero page is clamped", page: 0, perPage: 12, total: 5, wantPage: 1, wantPages: 1, wantOffset: 0, wantEnd: 5},
		{name: "empty list", page: 1, perPage: 12, total: 0, wantPage: 1, wantPages: 1, wantOffset: 0, wantEnd: 0},
		{name: "invalid per page falls back", page: 1, perPage: 0, total: 13, wantPage: 1, wantPages: 2, wantOffset: 0, wantEnd: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewInfo(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPage, info.Page)
			assert.Equal(t, tt.wantPages, info.TotalPages)
			assert.Equal(t, tt.wantOffset, info.Offset())
			assert.Equal(t, tt.wantEnd, info.End())
		})
	}
}

func TestSlice_CoversAllItems(t *testing.T) {
	items := make([]int, 29)
	for i := range items {
		items[i] = i
	}

	var seen []int
	_, info := Slice(items, 1, PageSize)
	for p := 1; p <= info.TotalPages; p++ {
		page, _ := Slice(items, p, PageSize)
		seen = append(seen, page...)
	}
	assert.Equal(t, items, seen)
}

func TestSlice_DoesNotAlias(t *testing.T) {
	items := []string{"a", "b", "c"}
	page, _ := Slice(items, 1, 2)
	page[0] = "z"
	assert.Equal(t, "a", items[0])
}

func TestInfo_HasNext(t *testing.T) {
	assert.True(t, NewInfo(1, 12, 13).HasNext())
	assert.False(t, NewInfo(2, 12, 13).HasNext())
}
