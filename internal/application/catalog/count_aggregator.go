package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Count aggregation defaults
const (
	DefaultCountTTL            = 30 * time.Second
	DefaultFallbackConcurrency = 8
	MaxCountParents            = 500
)

// CountOptions tunes a count request
type CountOptions struct {
	DirectOnly bool
	// Refresh bypasses the cache and overwrites its entry
	Refresh bool
}

// CountResult is a dense count matrix plus the pairs that could not be counted
type CountResult struct {
	Counts resource.CountMatrix  `json:"counts"`
	Errors []resource.PairError `json:"errors,omitempty"`
}

// PairRequest is one entry of an explicit batch count request
type PairRequest struct {
	ParentResource string
	ParentID       int64
	ChildResource  string
	ForeignKey     string
	DirectOnly     bool
}

// CountAggregatorConfig configures a CountAggregator
type CountAggregatorConfig struct {
	TTL                 time.Duration
	FallbackConcurrency int
}

// CountAggregator computes parent x child relation counts
type CountAggregator struct {
	registry    *resource.Registry
	repo        resource.CountRepository
	cache       CountCache
	ttl         time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewCountAggregator creates a new CountAggregator
func NewCountAggregator(
	registry *resource.Registry,
	repo resource.CountRepository,
	cache CountCache,
	cfg CountAggregatorConfig,
	logger *zap.Logger,
) *CountAggregator {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCountTTL
	}
	if cfg.FallbackConcurrency <= 0 {
		cfg.FallbackConcurrency = DefaultFallbackConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CountAggregator{
		registry:    registry,
		repo:        repo,
		cache:       cache,
		ttl:         cfg.TTL,
		concurrency: cfg.FallbackConcurrency,
		logger:      logger,
	}
}

// CountAll counts every child resource under every parent id.
// The result is always dense: pairs that failed are zero and listed in Errors.
// The work runs detached from ctx cancellation.
func (a *CountAggregator) CountAll(ctx context.Context, parent string, parentIDs []int64, children []string, opts CountOptions) (*CountResult, error) {
	parentDesc, err := a.registry.Resolve(parent)
	if err != nil {
		return nil, err
	}

	ids := resource.UniqueIDs(parentIDs)
	if len(ids) > MaxCountParents {
		return nil, shared.ErrValidation.WithDetails("at most %d parent ids per request", MaxCountParents)
	}

	queries := make([]resource.ChildQuery, 0, len(children))
	names := make([]string, 0, len(children))
	for _, name := range resource.UniqueNames(children) {
		childDesc, err := a.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		queries = append(queries, resource.ChildQuery{
			Resource:   childDesc,
			ForeignKey: a.registry.ForeignKeyFor(parentDesc.Name, childDesc.Name),
			DirectOnly: opts.DirectOnly,
		})
		names = append(names, childDesc.Name)
	}

	result := &CountResult{Counts: resource.NewCountMatrix(ids, names)}
	if len(ids) == 0 || len(queries) == 0 {
		return result, nil
	}

	ctx, span := telemetry.StartServiceSpan(context.WithoutCancel(ctx), "counts", "count_all",
		telemetry.WithAttribute(telemetry.SpanAttrResource, parentDesc.Name),
		telemetry.WithAttribute(telemetry.SpanAttrChildren, names),
		telemetry.WithAttribute(telemetry.SpanAttrParentIDs, len(ids)),
	)
	defer span.End()

	key := resource.CountKey(parentDesc.Name, ids, names, opts.DirectOnly)

	if !opts.Refresh && a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.logger.Warn("count cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, true)
			mergeCounts(result.Counts, cached)
			return result, nil
		}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, false)

	result.Errors = a.count(ctx, ids, queries, result.Counts)
	if len(result.Errors) > 0 {
		telemetry.AddEvent(span, "pairs_failed", "count", len(result.Errors))
	}

	// Failed pairs would otherwise be served as zeros until the entry expires
	if a.cache != nil && len(result.Errors) == 0 {
		if err := a.cache.Set(ctx, key, result.Counts, a.ttl); err != nil {
			a.logger.Warn("count cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// CountPairs answers an ordered list of explicit (parent, child) requests.
// Pairs sharing parent, child, foreign key and depth are counted together.
// Two pairs addressing the same matrix cell with different lookups are rejected.
func (a *CountAggregator) CountPairs(ctx context.Context, pairs []PairRequest) (*CountResult, error) {
	type group struct {
		query resource.ChildQuery
		ids   []int64
	}

	result := &CountResult{Counts: resource.CountMatrix{}}
	groups := make(map[string]*group)
	cells := make(map[string]string)
	var order []string

	for i, p := range pairs {
		parentDesc, err := a.registry.Resolve(p.ParentResource)
		if err != nil {
			return nil, err
		}
		childDesc, err := a.registry.Resolve(p.ChildResource)
		if err != nil {
			return nil, err
		}
		fk := p.ForeignKey
		if fk == "" {
			fk = a.registry.ForeignKeyFor(parentDesc.Name, childDesc.Name)
		}
		if _, ok := childDesc.Column(fk); !ok {
			return nil, shared.ErrValidation.WithDetails("pair %d: %s has no column %q", i, childDesc.Name, fk)
		}

		k := fmt.Sprintf("%s|%s|%s|%t", parentDesc.Name, childDesc.Name, fk, p.DirectOnly)
		cell := fmt.Sprintf("%d|%s", p.ParentID, childDesc.Name)
		if prev, seen := cells[cell]; seen {
			if prev != k {
				return nil, shared.ErrValidation.WithDetails("pair %d: conflicting lookups for parent %d and %s", i, p.ParentID, childDesc.Name)
			}
			continue
		}
		cells[cell] = k

		g, ok := groups[k]
		if !ok {
			g = &group{query: resource.ChildQuery{Resource: childDesc, ForeignKey: fk, DirectOnly: p.DirectOnly}}
			groups[k] = g
			order = append(order, k)
		}
		g.ids = append(g.ids, p.ParentID)

		row, ok := result.Counts[p.ParentID]
		if !ok {
			row = map[string]int64{}
			result.Counts[p.ParentID] = row
		}
		row[childDesc.Name] = 0
	}

	ctx, span := telemetry.StartServiceSpan(context.WithoutCancel(ctx), "counts", "count_pairs",
		telemetry.WithAttribute(telemetry.SpanAttrPairs, len(pairs)),
	)
	defer span.End()

	for _, k := range order {
		g := groups[k]
		ids := resource.UniqueIDs(g.ids)
		part := resource.NewCountMatrix(ids, []string{g.query.Resource.Name})
		errs := a.count(ctx, ids, []resource.ChildQuery{g.query}, part)
		mergeCounts(result.Counts, part)
		result.Errors = append(result.Errors, errs...)
	}
	return result, nil
}

// count fills m with one batched call, falling back to per-pair lookups when the batch fails entirely
func (a *CountAggregator) count(ctx context.Context, ids []int64, queries []resource.ChildQuery, m resource.CountMatrix) []resource.PairError {
	counts, pairErrs, err := a.repo.BatchCount(ctx, ids, queries)
	if err == nil {
		for id, row := range counts {
			for child, n := range row {
				m.Set(id, child, n)
			}
		}
		return pairErrs
	}

	a.logger.Warn("batch count failed, counting pairs individually",
		zap.Int("parents", len(ids)),
		zap.Int("children", len(queries)),
		zap.Error(err),
	)
	return a.fallback(ctx, ids, queries, m)
}

// fallback counts each pair on its own. A failing pair stays zero and never aborts the others.
func (a *CountAggregator) fallback(ctx context.Context, ids []int64, queries []resource.ChildQuery, m resource.CountMatrix) []resource.PairError {
	var (
		mu   sync.Mutex
		errs []resource.PairError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, q := range queries {
		for _, id := range ids {
			q, id := q, id
			g.Go(func() error {
				n, err := a.repo.CountOne(gctx, q, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, resource.PairError{ParentID: id, Child: q.Resource.Name, Message: err.Error()})
					return nil
				}
				m.Set(id, q.Resource.Name, n)
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Child != errs[j].Child {
			return errs[i].Child < errs[j].Child
		}
		return errs[i].ParentID < errs[j].ParentID
	})
	if len(errs) > 0 {
		a.logger.Warn("some pairs could not be counted", zap.Int("failed", len(errs)))
	}
	return errs
}

// mergeCounts copies src into the pairs already present in dst
func mergeCounts(dst, src resource.CountMatrix) {
	for id, row := range src {
		for child, n := range row {
			dst.Set(id, child, n)
		}
	}
}
