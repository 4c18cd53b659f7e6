package persistence

import (
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching term anywhere, with wildcards in term escaped
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// SearchCondition ORs a case-insensitive contains match over fields.
// Returns nil when there is nothing to search.
func SearchCondition(term string, fields []string) clause.Expression {
	if term == "" || len(fields) == 0 {
		return nil
	}
	pattern := ContainsPattern(term)
	exprs := make([]clause.Expression, len(fields))
	for i, f := range fields {
		exprs[i] = clause.Expr{
			SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
			Vars: []any{clause.Column{Name: f}, pattern},
		}
	}
	return anyOf(exprs)
}

// FilterConditions builds one equality or IN condition per filter, ANDed by the caller
func FilterConditions(filters resource.FilterSet) []clause.Expression {
	out := make([]clause.Expression, 0, len(filters))
	for _, field := range sortedKeys(filters) {
		col := clause.Column{Name: field}
		if set, ok := filters[field].([]any); ok {
			out = append(out, clause.IN{Column: col, Values: set})
			continue
		}
		out = append(out, clause.Eq{Column: col, Value: filters[field]})
	}
	return out
}

// anyOf ORs exprs. A single expression is returned bare so it is never joined
// to surrounding conditions with OR.
func anyOf(exprs []clause.Expression) clause.Expression {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return clause.Or(exprs...)
}

// filteredScope returns a fresh statement on d's table with the search and filter conditions applied.
// Count and Find each get their own scope so that paging never leaks into the total.
func filteredScope(db *gorm.DB, d *resource.Descriptor, spec resource.QuerySpec) *gorm.DB {
	tx := db.Table(d.Table)
	if cond := SearchCondition(spec.Search, spec.SearchFields); cond != nil {
		tx = tx.Where(cond)
	}
	for _, cond := range FilterConditions(spec.Filters) {
		tx = tx.Where(cond)
	}
	return tx
}

// visibleSelect selects the non-hidden columns of d, quoted
func visibleSelect(d *resource.Descriptor) clause.Select {
	names := d.VisibleColumns()
	cols := make([]clause.Column, len(names))
	for i, n := range names {
		cols[i] = clause.Column{Name: n}
	}
	return clause.Select{Columns: cols}
}

func idEquals(id int64) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: resource.PrimaryKey}, Value: id}
}
