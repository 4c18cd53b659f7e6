package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Timestamp columns maintained by the repository when a resource declares them
const (
	createdAtColumn = "createdAt"
	updatedAtColumn = "updatedAt"
)

// GormRecordRepository implements resource.RecordRepository over any registered table
type GormRecordRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db, now: time.Now}
}

// Query returns one page of the filtered rows and the size of the filtered set
func (r *GormRecordRepository) Query(ctx context.Context, d *resource.Descriptor, spec resource.QuerySpec) ([]resource.Row, int64, error) {
	spec, _ = spec.Normalize(d)
	db := r.db.WithContext(ctx)

	var total int64
	if err := filteredScope(db, d, spec).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", d.Name, err)
	}

	var rows []map[string]any
	err := filteredScope(db, d, spec).
		Clauses(visibleSelect(d)).
		Order(clause.OrderBy{Columns: OrderColumns(d, spec.SortBy, spec.SortDir)}).
		Offset(spec.Offset()).
		Limit(spec.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", d.Name, err)
	}
	return normalizeRows(d, rows), total, nil
}

// FindByID returns the visible columns of one row
func (r *GormRecordRepository) FindByID(ctx context.Context, d *resource.Descriptor, id int64) (resource.Row, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Table(d.Table).
		Clauses(visibleSelect(d)).
		Where(idEquals(id)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", d.Name, id, err)
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound.WithDetails("%s %d", d.Name, id)
	}
	return normalizeRows(d, rows)[0], nil
}

// Create inserts a row and returns its generated id
func (r *GormRecordRepository) Create(ctx context.Context, d *resource.Descriptor, values resource.Row) (int64, error) {
	row := r.writable(d, values)
	now := r.now()
	for _, c := range []string{createdAtColumn, updatedAtColumn} {
		if _, ok := d.Column(c); ok && row[c] == nil {
			row[c] = now
		}
	}
	if len(row) == 0 {
		return 0, shared.ErrValidation.WithDetails("%s: no values to insert", d.Name)
	}

	err := r.db.WithContext(ctx).
		Table(d.Table).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: resource.PrimaryKey}}}).
		Create(row).Error
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", d.Name, err)
	}
	id, ok := toInt64(row[resource.PrimaryKey])
	if !ok {
		return 0, fmt.Errorf("create %s: no id returned", d.Name)
	}
	return id, nil
}

// Update sets the given columns of one row
func (r *GormRecordRepository) Update(ctx context.Context, d *resource.Descriptor, id int64, values resource.Row) error {
	row := r.writable(d, values)
	if len(row) == 0 {
		_, err := r.FindByID(ctx, d, id)
		return err
	}
	if _, ok := d.Column(updatedAtColumn); ok {
		if _, set := row[updatedAtColumn]; !set {
			row[updatedAtColumn] = r.now()
		}
	}

	result := r.db.WithContext(ctx).Table(d.Table).Where(idEquals(id)).Updates(row)
	if result.Error != nil {
		return fmt.Errorf("update %s %d: %w", d.Name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithDetails("%s %d", d.Name, id)
	}
	return nil
}

// Delete removes one row
func (r *GormRecordRepository) Delete(ctx context.Context, d *resource.Descriptor, id int64) error {
	result := r.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: d.Table}, clause.Column{Name: resource.PrimaryKey}, id)
	if result.Error != nil {
		return fmt.Errorf("delete %s %d: %w", d.Name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithDetails("%s %d", d.Name, id)
	}
	return nil
}

// FileReferenced reports whether storedName is held by any row in one of columns
func (r *GormRecordRepository) FileReferenced(ctx context.Context, d *resource.Descriptor, columns []string, storedName string) (bool, error) {
	if storedName == "" || len(columns) == 0 {
		return false, nil
	}
	exprs := make([]clause.Expression, 0, len(columns))
	for _, c := range columns {
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: c}, Value: storedName})
	}

	var ids []int64
	err := r.db.WithContext(ctx).
		Table(d.Table).
		Where(anyOf(exprs)).
		Limit(1).
		Pluck(resource.PrimaryKey, &ids).Error
	if err != nil {
		return false, fmt.Errorf("lookup %s file: %w", d.Name, err)
	}
	return len(ids) > 0, nil
}

// writable keeps known, client-settable columns
func (r *GormRecordRepository) writable(d *resource.Descriptor, values resource.Row) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if d.Writable(k) {
			out[k] = v
		}
	}
	return out
}

// normalizeRows drops hidden columns and turns driver byte slices into strings
func normalizeRows(d *resource.Descriptor, rows []map[string]any) []resource.Row {
	out := make([]resource.Row, len(rows))
	for i, row := range rows {
		clean := make(resource.Row, len(row))
		for k, v := range row {
			if d.IsHidden(k) {
				continue
			}
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			clean[k] = v
		}
		out[i] = clean
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ resource.RecordRepository = (*GormRecordRepository)(nil)
