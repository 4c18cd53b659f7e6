package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCountRepository counts child rows grouped by parent
type GormCountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormCountRepository creates a new GormCountRepository
func NewGormCountRepository(db *gorm.DB, logger *zap.Logger) *GormCountRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormCountRepository{db: db, logger: logger}
}

type groupedCount struct {
	ParentID int64 `gorm:"column:parent_id"`
	Total    int64 `gorm:"column:total"`
}

// BatchCount issues one grouped query per child. A failing child is reported for every
// parent and the remaining children are still counted; the error return is reserved for
// the case where no child could be counted at all.
func (r *GormCountRepository) BatchCount(ctx context.Context, parentIDs []int64, children []resource.ChildQuery) (map[int64]map[string]int64, []resource.PairError, error) {
	out := make(map[int64]map[string]int64, len(parentIDs))
	for _, id := range parentIDs {
		out[id] = make(map[string]int64, len(children))
	}
	if len(parentIDs) == 0 || len(children) == 0 {
		return out, nil, nil
	}

	var (
		pairErrs []resource.PairError
		failures []error
	)
	for _, child := range children {
		var groups []groupedCount
		err := childScope(r.db.WithContext(ctx), child).
			Where(clause.IN{Column: clause.Column{Name: child.ForeignKey}, Values: int64Values(parentIDs)}).
			Select("? AS parent_id, COUNT(*) AS total", clause.Column{Name: child.ForeignKey}).
			Clauses(clause.GroupBy{Columns: []clause.Column{{Name: child.ForeignKey}}}).
			Scan(&groups).Error
		if err != nil {
			r.logger.Warn("batch count failed for child resource",
				zap.String("child", child.Resource.Name),
				zap.String("foreign_key", child.ForeignKey),
				zap.Error(err))
			failures = append(failures, err)
			for _, id := range parentIDs {
				pairErrs = append(pairErrs, resource.PairError{ParentID: id, Child: child.Resource.Name, Message: err.Error()})
			}
			continue
		}
		for _, g := range groups {
			if row, ok := out[g.ParentID]; ok {
				row[child.Resource.Name] = g.Total
			}
		}
	}

	if len(failures) == len(children) {
		return nil, nil, fmt.Errorf("batch count: %w", errors.Join(failures...))
	}
	return out, pairErrs, nil
}

// CountOne counts the children of a single parent
func (r *GormCountRepository) CountOne(ctx context.Context, child resource.ChildQuery, parentID int64) (int64, error) {
	var total int64
	err := childScope(r.db.WithContext(ctx), child).
		Where(clause.Eq{Column: clause.Column{Name: child.ForeignKey}, Value: parentID}).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count %s by %s: %w", child.Resource.Name, child.ForeignKey, err)
	}
	return total, nil
}

// childScope restricts hierarchical children to top-level rows when only direct children are wanted.
// A child reached through its own self reference is already exactly one hop away.
func childScope(db *gorm.DB, child resource.ChildQuery) *gorm.DB {
	tx := db.Table(child.Resource.Table)
	self := child.Resource.SelfRefColumn
	if child.DirectOnly && self != "" && self != child.ForeignKey {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: self}, Value: nil})
	}
	return tx
}

func int64Values(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

var _ resource.CountRepository = (*GormCountRepository)(nil)
