package handler

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files
const multipartMemory = 32 << 20

// ResourceUseCases is what the resource handler needs from the catalog layer
type ResourceUseCases interface {
	Resources() []catalog.ResourceMeta
	Meta(name string) (*catalog.ResourceMeta, error)
	List(ctx context.Context, name string, spec resource.QuerySpec) (*catalog.ListResult, error)
	Get(ctx context.Context, name string, id int64) (resource.Row, error)
	Create(ctx context.Context, name string, in catalog.RecordInput) (resource.Row, error)
	Update(ctx context.Context, name string, id int64, in catalog.RecordInput) (resource.Row, error)
	Delete(ctx context.Context, name string, id int64) error
	BulkDelete(ctx context.Context, name string, ids []int64) (*shared.BatchReport, error)
	BulkUpdate(ctx context.Context, name string, ids []int64, values map[string]any) (*shared.BatchReport, error)
}

var _ ResourceUseCases = (*catalog.ResourceService)(nil)

// ResourceHandler serves the generic resource admin API
type ResourceHandler struct {
	BaseHandler
	resources ResourceUseCases
}

// NewResourceHandler creates a new ResourceHandler
func NewResourceHandler(resources ResourceUseCases) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// ListResources handles GET /resources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	h.Success(c, h.resources.Resources())
}

// Meta handles GET /resources/:resource/meta
func (h *ResourceHandler) Meta(c *gin.Context) {
	meta, err := h.resources.Meta(c.Param("resource"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, meta)
}

// List handles GET /resources/:resource
func (h *ResourceHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	h.list(c, q.ToSpec())
}

// Query handles POST /resources/:resource/query
func (h *ResourceHandler) Query(c *gin.Context) {
	var body dto.ListBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.ValidationError(c, err)
		return
	}
	h.list(c, body.ToSpec())
}

func (h *ResourceHandler) list(c *gin.Context, spec resource.QuerySpec) {
	result, err := h.resources.List(c.Request.Context(), c.Param("resource"), spec)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Rows, result.Total, result.Page, result.PageSize)
}

// Get handles GET /resources/:resource/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	row, err := h.resources.Get(c.Request.Context(), c.Param("resource"), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// Create handles POST /resources/:resource with a JSON or multipart body
func (h *ResourceHandler) Create(c *gin.Context) {
	in, cleanup, err := bindRecordInput(c)
	if err != nil {
		h.ValidationError(c, err)
		return
	}
	defer cleanup()

	row, err := h.resources.Create(c.Request.Context(), c.Param("resource"), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, row)
}

// Update handles PUT /resources/:resource/:id with a JSON or multipart body
func (h *ResourceHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	in, cleanup, err := bindRecordInput(c)
	if err != nil {
		h.ValidationError(c, err)
		return
	}
	defer cleanup()

	row, err := h.resources.Update(c.Request.Context(), c.Param("resource"), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// Delete handles DELETE /resources/:resource/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.resources.Delete(c.Request.Context(), c.Param("resource"), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BulkDelete handles POST /resources/:resource/bulk-delete.
// Partial failures are reported item by item with status 200.
func (h *ResourceHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	report, err := h.resources.BulkDelete(c.Request.Context(), c.Param("resource"), req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// BulkUpdate handles POST /resources/:resource/bulk-update
func (h *ResourceHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	report, err := h.resources.BulkUpdate(c.Request.Context(), c.Param("resource"), req.IDs, req.Values)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

func (h *ResourceHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// bindRecordInput reads scalar values and uploads from a JSON or multipart body.
// The returned cleanup closes any opened upload.
func bindRecordInput(c *gin.Context) (catalog.RecordInput, func(), error) {
	noop := func() {}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var values dto.RecordRequest
		if err := c.ShouldBindJSON(&values); err != nil {
			return catalog.RecordInput{}, noop, err
		}
		return catalog.RecordInput{Values: values}, noop, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return catalog.RecordInput{}, noop, err
	}
	form := c.Request.MultipartForm

	in := catalog.RecordInput{
		Values: make(map[string]any, len(form.Value)),
		Files:  make(map[string]mediaapp.Upload, len(form.File)),
	}
	for k, vs := range form.Value {
		if len(vs) > 0 {
			in.Values[k] = vs[0]
		}
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = form.RemoveAll()
	}
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return catalog.RecordInput{}, noop, err
		}
		opened = append(opened, f)
		in.Files[field] = mediaapp.Upload{
			Filename: fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Body:     f,
		}
	}
	return in, cleanup, nil
}
