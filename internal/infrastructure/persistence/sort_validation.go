package persistence

import (
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"gorm.io/gorm/clause"
)

// ValidateSortOrder normalizes the sort direction to asc or desc, defaulting to desc
func ValidateSortOrder(orderDir string) string {
	if strings.ToLower(strings.TrimSpace(orderDir)) == resource.SortAsc {
		return resource.SortAsc
	}
	return resource.SortDesc
}

// ValidateSortField returns sortField when it is a visible column of d, otherwise the primary key
func ValidateSortField(d *resource.Descriptor, sortField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && d.IsVisible(trimmed) {
		return trimmed
	}
	return resource.DefaultSortBy
}

// OrderColumns builds the ORDER BY clause for a list query.
// A primary key tiebreaker keeps pagination stable when the sort column has duplicates.
func OrderColumns(d *resource.Descriptor, sortField, sortDir string) []clause.OrderByColumn {
	field := ValidateSortField(d, sortField)
	desc := ValidateSortOrder(sortDir) == resource.SortDesc

	cols := []clause.OrderByColumn{{Column: clause.Column{Name: field}, Desc: desc}}
	if field != resource.PrimaryKey {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: resource.PrimaryKey}, Desc: desc})
	}
	return cols
}
