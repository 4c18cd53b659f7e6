package catalog

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"go.uber.org/zap"
)

// hintColumns are tried in order when naming an uploaded file after its record
var hintColumns = []string{"titulo", "nombre", "alt", "slug"}

// ResourceService handles listing and editing of registered resources
type ResourceService struct {
	registry *resource.Registry
	records  resource.RecordRepository
	assets   AssetManager
	logger   *zap.Logger
}

// NewResourceService creates a new ResourceService
func NewResourceService(
	registry *resource.Registry,
	records resource.RecordRepository,
	assets AssetManager,
	logger *zap.Logger,
) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{
		registry: registry,
		records:  records,
		assets:   assets,
		logger:   logger,
	}
}

// Resources describes every registered resource
func (s *ResourceService) Resources() []ResourceMeta {
	names := s.registry.Names()
	out := make([]ResourceMeta, 0, len(names))
	for _, name := range names {
		d, _ := s.registry.Resolve(name)
		out = append(out, toResourceMeta(d))
	}
	return out
}

// Meta describes one resource
func (s *ResourceService) Meta(name string) (*ResourceMeta, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	meta := toResourceMeta(d)
	return &meta, nil
}

// List returns one page of a resource together with the size of the filtered set
func (s *ResourceService) List(ctx context.Context, name string, spec resource.QuerySpec) (*ListResult, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	spec, dropped := spec.Normalize(d)
	if len(dropped) > 0 {
		s.logger.Debug("ignoring unknown filters", zap.String("resource", d.Name), zap.Strings("fields", dropped))
	}

	rows, total, err := s.records.Query(ctx, d, spec)
	if err != nil {
		return nil, upstream(err)
	}
	return &ListResult{Rows: rows, Total: total, Page: spec.Page, PageSize: spec.PageSize}, nil
}

// Get returns a single record
func (s *ResourceService) Get(ctx context.Context, name string, id int64) (resource.Row, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	row, err := s.records.FindByID(ctx, d, id)
	if err != nil {
		return nil, upstream(err)
	}
	return row, nil
}

// Create inserts a record, storing its uploads first. Uploads are removed again when the insert fails.
func (s *ResourceService) Create(ctx context.Context, name string, in RecordInput) (resource.Row, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	values, _, err := s.prepare(d, in, nil)
	if err != nil {
		return nil, err
	}

	stored, err := s.ingest(ctx, d, in.Files, values)
	if err != nil {
		return nil, err
	}
	for col, storedName := range stored {
		values[col] = storedName
	}

	id, err := s.records.Create(ctx, d, values)
	if err != nil {
		s.discard(ctx, d, stored)
		return nil, upstream(err)
	}

	s.logger.Info("record created", zap.String("resource", d.Name), zap.Int64("id", id))
	return s.Get(ctx, d.Name, id)
}

// Update changes a record. A new upload supersedes the previous file; a blank value for a
// file column clears it and removes the file. Superseded and cleared files are removed only
// after the row is written, so a failed update leaves the record's files in place.
func (s *ResourceService) Update(ctx context.Context, name string, id int64, in RecordInput) (resource.Row, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	current, err := s.records.FindByID(ctx, d, id)
	if err != nil {
		return nil, upstream(err)
	}

	values, cleared, err := s.prepare(d, in, current)
	if err != nil {
		return nil, err
	}

	merged := make(resource.Row, len(current)+len(values))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}

	stored, err := s.ingest(ctx, d, in.Files, merged)
	if err != nil {
		return nil, err
	}
	for col, storedName := range stored {
		values[col] = storedName
	}

	if err := s.records.Update(ctx, d, id, values); err != nil {
		s.discard(ctx, d, stored)
		return nil, upstream(err)
	}

	for col, storedName := range stored {
		if prev, ok := current[col].(string); ok && prev != "" && prev != storedName {
			s.assets.Remove(ctx, d, prev)
		}
	}
	for _, col := range cleared {
		if prev, ok := current[col].(string); ok && prev != "" {
			s.assets.Remove(ctx, d, prev)
		}
	}

	s.logger.Info("record updated", zap.String("resource", d.Name), zap.Int64("id", id))
	return s.Get(ctx, d.Name, id)
}

// Delete removes a record and the files it references
func (s *ResourceService) Delete(ctx context.Context, name string, id int64) error {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return err
	}
	return s.delete(ctx, d, id)
}

// BulkDelete deletes each id independently and reports which ones failed
func (s *ResourceService) BulkDelete(ctx context.Context, name string, ids []int64) (*shared.BatchReport, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	report := shared.NewBatchReport()
	for _, id := range resource.UniqueIDs(ids) {
		if err := s.delete(ctx, d, id); err != nil {
			report.Fail(id, err)
			continue
		}
		report.Succeed(id)
	}
	s.logBatch("bulk delete", d, report)
	return report, nil
}

// BulkUpdate applies the same scalar values to each id independently
func (s *ResourceService) BulkUpdate(ctx context.Context, name string, ids []int64, raw map[string]any) (*shared.BatchReport, error) {
	d, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	for col := range raw {
		if _, isFile := d.FileField(col); isFile {
			return nil, shared.ErrValidation.WithDetails("file column %q cannot be bulk edited", col)
		}
	}

	values, _, err := s.prepare(d, RecordInput{Values: raw}, nil)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, shared.ErrValidation.WithDetails("no writable values for %s", d.Name)
	}

	report := shared.NewBatchReport()
	for _, id := range resource.UniqueIDs(ids) {
		if err := s.records.Update(ctx, d, id, values); err != nil {
			report.Fail(id, err)
			continue
		}
		report.Succeed(id)
	}
	s.logBatch("bulk update", d, report)
	return report, nil
}

func (s *ResourceService) delete(ctx context.Context, d *resource.Descriptor, id int64) error {
	current, err := s.records.FindByID(ctx, d, id)
	if err != nil {
		return upstream(err)
	}
	if err := s.records.Delete(ctx, d, id); err != nil {
		return upstream(err)
	}
	for _, col := range d.FileColumns() {
		if storedName, ok := current[col].(string); ok && storedName != "" {
			s.assets.Remove(ctx, d, storedName)
		}
	}
	s.logger.Info("record deleted", zap.String("resource", d.Name), zap.Int64("id", id))
	return nil
}

// prepare coerces scalar values to column types. File columns only accept a blank value,
// which clears them, or their current stored name, which is a no-op.
func (s *ResourceService) prepare(d *resource.Descriptor, in RecordInput, current resource.Row) (resource.Row, []string, error) {
	values := make(resource.Row, len(in.Values))
	var (
		cleared []string
		ignored []string
	)

	for _, k := range sortedKeys(in.Values) {
		v := in.Values[k]
		if !d.Writable(k) || d.IsHidden(k) {
			ignored = append(ignored, k)
			continue
		}

		if _, isFile := d.FileField(k); isFile {
			if _, uploading := in.Files[k]; uploading {
				continue
			}
			if blank(v) {
				values[k] = nil
				cleared = append(cleared, k)
				continue
			}
			if str, ok := v.(string); ok && current != nil && current[k] == str {
				continue
			}
			return nil, nil, shared.ErrValidation.WithDetails("column %q only accepts uploads", k)
		}

		col, _ := d.Column(k)
		cv, err := col.CoerceWrite(v)
		if err != nil {
			return nil, nil, shared.ErrValidation.WithDetails("%s", err.Error())
		}
		values[k] = cv
	}

	for col := range in.Files {
		if _, isFile := d.FileField(col); !isFile {
			return nil, nil, shared.ErrValidation.WithDetails("%s has no file column %q", d.Name, col)
		}
	}

	if len(ignored) > 0 {
		s.logger.Debug("ignoring non-writable fields", zap.String("resource", d.Name), zap.Strings("fields", ignored))
	}
	return values, cleared, nil
}

// ingest stores every upload. On failure the uploads stored so far are removed.
// Previous files are left alone; the caller removes them once the row is written.
func (s *ResourceService) ingest(ctx context.Context, d *resource.Descriptor, files map[string]mediaapp.Upload, row resource.Row) (map[string]string, error) {
	stored := make(map[string]string, len(files))
	for _, col := range sortedKeys(files) {
		field, _ := d.FileField(col)
		upload := files[col]

		desc, err := s.assets.Ingest(ctx, mediaapp.IngestRequest{
			Resource: d,
			Field:    field,
			Row:      row,
			Hint:     hintFor(row, upload.Filename),
			File:     upload,
		})
		if err != nil {
			s.discard(ctx, d, stored)
			return nil, err
		}
		stored[col] = desc.StoredName
	}
	return stored, nil
}

func (s *ResourceService) discard(ctx context.Context, d *resource.Descriptor, stored map[string]string) {
	for _, storedName := range stored {
		s.assets.Remove(ctx, d, storedName)
	}
}

func (s *ResourceService) logBatch(op string, d *resource.Descriptor, report *shared.BatchReport) {
	fields := []zap.Field{
		zap.String("resource", d.Name),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
	}
	if len(report.Failed) > 0 {
		s.logger.Warn(op+" finished with failures", fields...)
		return
	}
	s.logger.Info(op+" finished", fields...)
}

// hintFor picks the human text a stored name is derived from
func hintFor(row resource.Row, filename string) string {
	for _, col := range hintColumns {
		if v, ok := row[col].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return strings.TrimSuffix(path.Base(filename), path.Ext(filename))
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	str, ok := v.(string)
	if !ok {
		return false
	}
	str = strings.TrimSpace(str)
	return str == "" || str == "null" || str == "undefined"
}

// upstream passes domain errors through and classifies anything else as a store failure
func upstream(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.ErrUpstream.WithCause(err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
