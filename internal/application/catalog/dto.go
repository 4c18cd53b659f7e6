package catalog

import (
	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
)

// RecordInput is the payload of a create or update.
// Values holds scalar fields; Files holds at most one upload per file-bearing column.
type RecordInput struct {
	Values map[string]any
	Files  map[string]mediaapp.Upload
}

// ListResult is one page of a resource listing
type ListResult struct {
	Rows     []resource.Row `json:"rows"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ColumnMeta describes a column to admin clients
type ColumnMeta struct {
	Name    string              `json:"name"`
	Kind    resource.ColumnKind `json:"kind"`
	Default bool                `json:"default"`
	File    bool                `json:"file"`
	Accepts []media.Type        `json:"accepts,omitempty"`
}

// ResourceMeta describes a resource to admin clients
type ResourceMeta struct {
	Name          string              `json:"name"`
	Columns       []ColumnMeta        `json:"columns"`
	SearchColumns []string            `json:"search_columns"`
	Relations     []resource.Relation `json:"relations"`
}

func toResourceMeta(d *resource.Descriptor) ResourceMeta {
	defaults := make(map[string]bool, len(d.DefaultColumns))
	for _, c := range d.DefaultColumns {
		defaults[c] = true
	}

	meta := ResourceMeta{
		Name:          d.Name,
		Columns:       make([]ColumnMeta, 0, len(d.Columns)),
		SearchColumns: append([]string{}, d.SearchColumns...),
		Relations:     append([]resource.Relation{}, d.Relations...),
	}
	for _, c := range d.Columns {
		if d.IsHidden(c.Name) {
			continue
		}
		cm := ColumnMeta{Name: c.Name, Kind: c.Kind, Default: defaults[c.Name]}
		if f, ok := d.FileField(c.Name); ok {
			cm.File = true
			cm.Accepts = f.Policy.Accepts
		}
		meta.Columns = append(meta.Columns, cm)
	}
	return meta
}
