package handler

import (
	"context"
	"fmt"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/dto"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CountUseCases is what the count handler needs from the aggregator
type CountUseCases interface {
	CountAll(ctx context.Context, parent string, parentIDs []int64, children []string, opts catalog.CountOptions) (*catalog.CountResult, error)
	CountPairs(ctx context.Context, pairs []catalog.PairRequest) (*catalog.CountResult, error)
}

// RelationLister lists the child resources related to a parent
type RelationLister interface {
	Meta(name string) (*catalog.ResourceMeta, error)
}

var _ CountUseCases = (*catalog.CountAggregator)(nil)

// CountHandler serves relation counts for list badges
type CountHandler struct {
	BaseHandler
	counts    CountUseCases
	relations RelationLister
}

// NewCountHandler creates a new CountHandler
func NewCountHandler(counts CountUseCases, relations RelationLister) *CountHandler {
	return &CountHandler{counts: counts, relations: relations}
}

// Counts handles GET /resources/:resource/counts?ids=1,2&children=A,B.
// Without children every related resource is counted.
func (h *CountHandler) Counts(c *gin.Context) {
	var q dto.CountQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	ids, err := dto.ParseIDs(q.IDs...)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	parent := c.Param("resource")
	children := dto.SplitList(q.Children...)
	if len(children) == 0 {
		meta, err := h.relations.Meta(parent)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		for _, rel := range meta.Relations {
			children = append(children, rel.Child)
		}
	}

	result, err := h.counts.CountAll(c.Request.Context(), parent, ids, children, q.Options())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Batch handles POST /counts/batch with an ordered array of pairs.
// Pairs that could not be counted are listed in errors and read as zero.
func (h *CountHandler) Batch(c *gin.Context) {
	var items []dto.BatchCountItem
	if err := c.ShouldBindJSON(&items); err != nil {
		h.ValidationError(c, err)
		return
	}
	tag := fmt.Sprintf("required,min=1,max=%d", dto.MaxBatchCountItems)
	if err := middleware.ValidateVar(items, tag); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.counts.CountPairs(c.Request.Context(), dto.ToPairRequests(items))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
