package resource

import "context"

// Row is one record of a resource table keyed by column name
type Row = map[string]any

// RecordRepository reads and writes rows of any registered resource
type RecordRepository interface {
	// Query returns one page of the filtered set plus the size of the whole filtered set
	Query(ctx context.Context, d *Descriptor, spec QuerySpec) ([]Row, int64, error)
	FindByID(ctx context.Context, d *Descriptor, id int64) (Row, error)
	Create(ctx context.Context, d *Descriptor, values Row) (int64, error)
	Update(ctx context.Context, d *Descriptor, id int64, values Row) error
	Delete(ctx context.Context, d *Descriptor, id int64) error
	// FileReferenced reports whether any row holds storedName in one of the given columns
	FileReferenced(ctx context.Context, d *Descriptor, columns []string, storedName string) (bool, error)
}

// ChildQuery selects the child rows counted under a parent
type ChildQuery struct {
	Resource   *Descriptor
	ForeignKey string
	// DirectOnly restricts hierarchical children to rows exactly one foreign-key hop away
	DirectOnly bool
}

// PairError reports a failed (parent, child) count
type PairError struct {
	ParentID int64  `json:"parentId"`
	Child    string `json:"childResource"`
	Message  string `json:"message"`
}

// CountRepository counts child rows per parent
type CountRepository interface {
	// BatchCount counts every (parentID, child) pair in as few round trips as possible.
	// Failures of individual children are reported as PairErrors; a non-nil error means nothing could be counted.
	BatchCount(ctx context.Context, parentIDs []int64, children []ChildQuery) (map[int64]map[string]int64, []PairError, error)
	// CountOne counts a single pair
	CountOne(ctx context.Context, child ChildQuery, parentID int64) (int64, error)
}
