package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
)

// Registry is the closed, read-only set of resource descriptors
type Registry struct {
	byName  map[string]*Descriptor
	byLower map[string]*Descriptor
	names   []string
}

// NewRegistry validates and freezes a set of descriptors
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]*Descriptor, len(descriptors)),
		byLower: make(map[string]*Descriptor, len(descriptors)),
	}

	for i := range descriptors {
		d := descriptors[i]
		if d.Name == "" || d.Table == "" {
			return nil, fmt.Errorf("descriptor %d: name and table are required", i)
		}
		lower := strings.ToLower(d.Name)
		if _, dup := r.byLower[lower]; dup {
			return nil, fmt.Errorf("duplicate resource %q", d.Name)
		}
		d.index()
		if _, ok := d.Column(PrimaryKey); !ok {
			return nil, fmt.Errorf("resource %s: missing %q column", d.Name, PrimaryKey)
		}
		for _, name := range d.DefaultColumns {
			if !d.IsVisible(name) {
				return nil, fmt.Errorf("resource %s: default column %q is unknown or hidden", d.Name, name)
			}
		}
		for _, name := range d.SearchColumns {
			if c, ok := d.Column(name); !ok || !c.Kind.IsTextual() {
				return nil, fmt.Errorf("resource %s: search column %q must be a text column", d.Name, name)
			}
		}
		for _, f := range d.FileFields {
			if _, ok := d.Column(f.Column); !ok {
				return nil, fmt.Errorf("resource %s: file column %q is unknown", d.Name, f.Column)
			}
		}
		if d.SelfRefColumn != "" {
			if _, ok := d.Column(d.SelfRefColumn); !ok {
				return nil, fmt.Errorf("resource %s: self reference column %q is unknown", d.Name, d.SelfRefColumn)
			}
		}
		r.byName[d.Name] = &d
		r.byLower[lower] = &d
		r.names = append(r.names, d.Name)
	}

	for _, d := range r.byName {
		for _, rel := range d.Relations {
			child, ok := r.byName[rel.Child]
			if !ok {
				return nil, fmt.Errorf("resource %s: relation to unknown resource %q", d.Name, rel.Child)
			}
			if _, ok := child.Column(rel.ForeignKey); !ok {
				return nil, fmt.Errorf("resource %s: foreign key %s.%s is unknown", d.Name, rel.Child, rel.ForeignKey)
			}
		}
	}

	sort.Strings(r.names)
	return r, nil
}

// MustNewRegistry is NewRegistry for static descriptor sets
func MustNewRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks up a descriptor by public name. Matching is case-insensitive.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	if d, ok := r.byName[name]; ok {
		return d, nil
	}
	if d, ok := r.byLower[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, shared.ErrNotFound.WithDetails("unknown resource %q", name)
}

// Names returns every registered public name, sorted
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// ForeignKeyFor returns the column on child that references parent.
// The explicit relation map wins; otherwise the name is derived from the parent
// (lowercased, one trailing "s" stripped, suffixed with "Id").
func (r *Registry) ForeignKeyFor(parent, child string) string {
	if d, err := r.Resolve(parent); err == nil {
		if c, err := r.Resolve(child); err == nil {
			if rel, ok := d.RelationTo(c.Name); ok {
				return rel.ForeignKey
			}
		}
	}
	return ConventionalForeignKey(parent)
}

// ConventionalForeignKey derives a foreign key from a parent resource name
func ConventionalForeignKey(parent string) string {
	base := strings.ToLower(parent)
	base = strings.TrimSuffix(base, "s")
	return base + "Id"
}
