package resource

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Query limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
	// MaxPage keeps Offset within an int32 for any page size
	MaxPage         = math.MaxInt32 / MaxPageSize
	DefaultSortBy   = PrimaryKey
	SortAsc         = "asc"
	SortDesc        = "desc"
)

// FilterSet maps a column to a scalar or a set of values
type FilterSet map[string]any

// QuerySpec is a bounded list query against one resource
type QuerySpec struct {
	Page         int
	PageSize     int
	SortBy       string
	SortDir      string
	Search       string
	SearchFields []string
	Filters      FilterSet
}

// Offset returns the number of rows skipped by the page
func (q QuerySpec) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Normalize clamps paging, validates sorting and search columns against the descriptor
// and drops empty or unknown filters. Dropped filter columns are returned for logging.
func (q QuerySpec) Normalize(d *Descriptor) (QuerySpec, []string) {
	out := QuerySpec{
		Page:     q.Page,
		PageSize: q.PageSize,
		SortBy:   q.SortBy,
		SortDir:  strings.ToLower(strings.TrimSpace(q.SortDir)),
		Search:   strings.TrimSpace(q.Search),
	}

	switch {
	case out.Page < 1:
		out.Page = 1
	case out.Page > MaxPage:
		out.Page = MaxPage
	}
	switch {
	case out.PageSize <= 0:
		out.PageSize = DefaultPageSize
	case out.PageSize > MaxPageSize:
		out.PageSize = MaxPageSize
	}
	if !d.IsVisible(out.SortBy) {
		out.SortBy = DefaultSortBy
	}
	if out.SortDir != SortAsc && out.SortDir != SortDesc {
		out.SortDir = SortDesc
	}

	if out.Search != "" {
		fields := q.SearchFields
		if len(fields) == 0 {
			fields = d.SearchColumns
		}
		for _, f := range fields {
			if c, ok := d.Column(f); ok && c.Kind.IsTextual() && !d.IsHidden(f) {
				out.SearchFields = append(out.SearchFields, f)
			}
		}
	}

	var dropped []string
	out.Filters = FilterSet{}
	for field, raw := range CleanFilters(q.Filters) {
		c, ok := d.Column(field)
		if !ok || d.IsHidden(field) {
			dropped = append(dropped, field)
			continue
		}
		out.Filters[field] = c.coerceFilter(raw)
	}
	return out, dropped
}

// CleanFilters drops null, empty and blank values, and empty sets
func CleanFilters(raw map[string]any) FilterSet {
	out := FilterSet{}
	for k, v := range raw {
		if k == "" || isEmpty(v) {
			continue
		}
		if set, ok := asSet(v); ok {
			kept := make([]any, 0, len(set))
			for _, item := range set {
				if !isEmpty(item) {
					kept = append(kept, item)
				}
			}
			if len(kept) == 0 {
				continue
			}
			v = kept
		}
		out[k] = v
	}
	return out
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || s == "null" || s == "undefined"
	}
	if set, ok := asSet(v); ok {
		return len(set) == 0
	}
	return false
}

func asSet(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// CoerceValue turns numeric-looking strings into numbers and "true"/"false" into booleans.
// Sets are coerced element-wise; other values pass through.
func CoerceValue(v any) any {
	if set, ok := asSet(v); ok {
		out := make([]any, len(set))
		for i, item := range set {
			out[i] = CoerceValue(item)
		}
		return out
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return v
}

// coerceFilter keeps text columns textual so that codes such as "00123" still match
func (c Column) coerceFilter(v any) any {
	if !c.Kind.IsTextual() {
		v = CoerceValue(v)
		if c.Kind == KindInt {
			return wholeNumbers(v)
		}
		return v
	}
	if set, ok := asSet(v); ok {
		out := make([]any, len(set))
		for i, item := range set {
			out[i] = textual(item)
		}
		return out
	}
	return textual(v)
}

func wholeNumbers(v any) any {
	if set, ok := v.([]any); ok {
		for i, item := range set {
			set[i] = wholeNumbers(item)
		}
		return set
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

func textual(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case float64, int, int64, bool:
		return fmt.Sprint(t)
	}
	return v
}

// CoerceWrite converts a client value into the column's storage type
func (c Column) CoerceWrite(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, isString := v.(string)
	if isString {
		s = strings.TrimSpace(s)
	}

	switch c.Kind {
	case KindString, KindText:
		if isString {
			return v, nil
		}
		return fmt.Sprint(v), nil
	case KindInt:
		if isString {
			if s == "" {
				return nil, nil
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not an integer", c.Name, s)
			}
			return n, nil
		}
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("%s: %v is not an integer", c.Name, n)
			}
			return int64(n), nil
		case int, int64:
			return n, nil
		}
	case KindBool:
		if isString {
			if s == "" {
				return nil, nil
			}
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not a boolean", c.Name, s)
			}
			return b, nil
		}
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindDecimal:
		if isString {
			if s == "" {
				return nil, nil
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not a decimal", c.Name, s)
			}
			return d, nil
		}
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n), nil
		case int64:
			return decimal.NewFromInt(n), nil
		case int:
			return decimal.NewFromInt(int64(n)), nil
		case decimal.Decimal:
			return n, nil
		}
	case KindTime:
		if isString {
			if s == "" {
				return nil, nil
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not an RFC3339 time", c.Name, s)
			}
			return t, nil
		}
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: unsupported value %v", c.Name, v)
}
