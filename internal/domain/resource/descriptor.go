package resource

import (
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
)

// ColumnKind is the storage kind of a column
type ColumnKind string

const (
	KindInt     ColumnKind = "int"
	KindString  ColumnKind = "string"
	KindText    ColumnKind = "text"
	KindBool    ColumnKind = "bool"
	KindDecimal ColumnKind = "decimal"
	KindTime    ColumnKind = "time"
)

// IsTextual reports whether the column holds free text
func (k ColumnKind) IsTextual() bool {
	return k == KindString || k == KindText
}

// Column is a named, typed column of a resource table
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Relation is a parent to child association through a foreign key on the child
type Relation struct {
	Child      string `json:"child"`
	ForeignKey string `json:"foreign_key"`
}

// FileField is a column holding a stored name.
// When Discriminator is set, the accepted media types depend on the row's value for that column.
type FileField struct {
	Column          string
	Policy          media.FieldPolicy
	Discriminator   string
	ByDiscriminator map[string]media.FieldPolicy
}

// PolicyFor returns the field policy applicable to a row
func (f FileField) PolicyFor(row map[string]any) media.FieldPolicy {
	if f.Discriminator == "" || row == nil {
		return f.Policy
	}
	if v, ok := row[f.Discriminator].(string); ok {
		if p, ok := f.ByDiscriminator[v]; ok {
			return p
		}
	}
	return f.Policy
}

// Descriptor describes one administrable resource.
// Descriptors are built once by NewRegistry and must be treated as read-only afterwards.
type Descriptor struct {
	Name           string
	Table          string
	Columns        []Column
	DefaultColumns []string
	HiddenColumns  map[string]bool
	SearchColumns  []string
	Relations      []Relation
	FileFields     []FileField
	ImageFolder    string
	SelfRefColumn  string

	columns map[string]Column
	files   map[string]FileField
}

// PrimaryKey is the primary key column shared by every resource table
const PrimaryKey = "id"

func (d *Descriptor) index() {
	d.columns = make(map[string]Column, len(d.Columns))
	for _, c := range d.Columns {
		d.columns[c.Name] = c
	}
	d.files = make(map[string]FileField, len(d.FileFields))
	for _, f := range d.FileFields {
		d.files[f.Column] = f
	}
	if d.HiddenColumns == nil {
		d.HiddenColumns = map[string]bool{}
	}
}

// Column looks up a column by name
func (d *Descriptor) Column(name string) (Column, bool) {
	c, ok := d.columns[name]
	return c, ok
}

// IsHidden reports whether a column must never leave the store
func (d *Descriptor) IsHidden(name string) bool {
	return d.HiddenColumns[name]
}

// IsVisible reports whether name is a known, non-hidden column
func (d *Descriptor) IsVisible(name string) bool {
	_, ok := d.columns[name]
	return ok && !d.HiddenColumns[name]
}

// VisibleColumns returns the non-hidden column names in declaration order
func (d *Descriptor) VisibleColumns() []string {
	out := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !d.HiddenColumns[c.Name] {
			out = append(out, c.Name)
		}
	}
	return out
}

// FileField looks up a file-bearing column
func (d *Descriptor) FileField(column string) (FileField, bool) {
	f, ok := d.files[column]
	return f, ok
}

// FileColumns returns the names of every file-bearing column
func (d *Descriptor) FileColumns() []string {
	out := make([]string, len(d.FileFields))
	for i, f := range d.FileFields {
		out[i] = f.Column
	}
	return out
}

// RelationTo returns the relation to child, if declared
func (d *Descriptor) RelationTo(child string) (Relation, bool) {
	for _, r := range d.Relations {
		if r.Child == child {
			return r, true
		}
	}
	return Relation{}, false
}

// Writable reports whether a column may be set by clients
func (d *Descriptor) Writable(name string) bool {
	if name == PrimaryKey {
		return false
	}
	_, ok := d.columns[name]
	return ok
}
