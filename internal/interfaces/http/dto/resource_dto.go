package dto

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
)

// MaxBatchCountItems bounds a single batch count request
const MaxBatchCountItems = 2000

// ListQuery is the query string of a resource listing.
// Filters is a JSON object; malformed JSON is ignored rather than rejected.
type ListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	SortBy   string `form:"sortBy"`
	SortDir  string `form:"sortDir"`
	Q        string `form:"q"`
	QFields  string `form:"qFields"`
	Filters  string `form:"filters"`
}

// ToSpec converts the query string into a query spec
func (q ListQuery) ToSpec() resource.QuerySpec {
	return resource.QuerySpec{
		Page:         q.Page,
		PageSize:     q.PageSize,
		SortBy:       q.SortBy,
		SortDir:      q.SortDir,
		Search:       q.Q,
		SearchFields: SplitList(q.QFields),
		Filters:      ParseFilters(q.Filters),
	}
}

// ListBody is the JSON form of a resource listing
type ListBody struct {
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	SortBy   string         `json:"sortBy"`
	SortDir  string         `json:"sortDir"`
	Q        string         `json:"q"`
	QFields  []string       `json:"qFields"`
	Filters  map[string]any `json:"filters"`
}

// ToSpec converts the body into a query spec
func (b ListBody) ToSpec() resource.QuerySpec {
	return resource.QuerySpec{
		Page:         b.Page,
		PageSize:     b.PageSize,
		SortBy:       b.SortBy,
		SortDir:      b.SortDir,
		Search:       b.Q,
		SearchFields: b.QFields,
		Filters:      resource.FilterSet(b.Filters),
	}
}

// ParseFilters decodes a JSON filter object. Anything that is not a JSON object yields no filters.
func ParseFilters(raw string) resource.FilterSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return resource.FilterSet(out)
}

// SplitList splits comma separated values, dropping blanks
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseIDs parses comma separated or repeated ids
func ParseIDs(values ...string) ([]int64, error) {
	parts := SplitList(values...)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, &InvalidIDError{Value: p}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// InvalidIDError reports an id that is not a positive integer
type InvalidIDError struct {
	Value string
}

func (e *InvalidIDError) Error() string {
	return "invalid id " + strconv.Quote(e.Value)
}

// RecordRequest is the JSON body of a create or update
type RecordRequest map[string]any

// BulkDeleteRequest lists the ids to delete
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
}

// BulkUpdateRequest applies values to every id
type BulkUpdateRequest struct {
	IDs    []int64        `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
	Values map[string]any `json:"values" binding:"required,min=1"`
}

// CountQuery is the query string of a relation count request
type CountQuery struct {
	IDs        []string `form:"ids" binding:"required"`
	Children   []string `form:"children"`
	DirectOnly bool     `form:"directOnly"`
	Refresh    bool     `form:"refresh"`
}

// Options converts the flags into aggregator options
func (q CountQuery) Options() catalog.CountOptions {
	return catalog.CountOptions{DirectOnly: q.DirectOnly, Refresh: q.Refresh}
}

// BatchCountItem is one (parent, child) pair of a batch count request
type BatchCountItem struct {
	ParentResource     string `json:"parentResource" binding:"required"`
	ParentID           int64  `json:"parentId" binding:"required,gt=0"`
	ChildResource      string `json:"childResource" binding:"required"`
	ForeignKey         string `json:"foreignKey"`
	DirectChildrenOnly bool   `json:"directChildrenOnly"`
}

// ToPairRequests converts batch items in request order
func ToPairRequests(items []BatchCountItem) []catalog.PairRequest {
	out := make([]catalog.PairRequest, len(items))
	for i, it := range items {
		out[i] = catalog.PairRequest{
			ParentResource: it.ParentResource,
			ParentID:       it.ParentID,
			ChildResource:  it.ChildResource,
			ForeignKey:     it.ForeignKey,
			DirectOnly:     it.DirectChildrenOnly,
		}
	}
	return out
}

