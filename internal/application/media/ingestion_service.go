package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload is one inbound file part
type Upload struct {
	Filename string
	MIMEType string
	// Size is the byte length of Body; a negative size is measured by seeking
	Size int64
	Body io.ReadSeeker
}

// IngestRequest asks for a file to be stored for one file-bearing field of a record
type IngestRequest struct {
	Resource *resource.Descriptor
	Field    resource.FileField
	// Row holds the record's values, used to pick the field policy
	Row  map[string]any
	Hint string
	// Previous is the stored name being superseded, if any
	Previous string
	File     Upload
}

// IngestionService stores uploads under generated names and maintains their thumbnails
type IngestionService struct {
	store  ObjectStore
	imager Imager
	frames FrameExtractor
	queue  ThumbnailQueue
	names  *media.NameGenerator
	layout media.Layout
	limits media.Limits
	logger *zap.Logger
}

// NewIngestionService creates a new IngestionService.
// frames may be nil, in which case videos get no thumbnail.
func NewIngestionService(
	store ObjectStore,
	imager Imager,
	frames FrameExtractor,
	queue ThumbnailQueue,
	names *media.NameGenerator,
	limits media.Limits,
	logger *zap.Logger,
) *IngestionService {
	if names == nil {
		names = media.NewNameGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{
		store:  store,
		imager: imager,
		frames: frames,
		queue:  queue,
		names:  names,
		limits: limits,
		logger: logger,
	}
}

// Ingest validates and persists an upload, returning its descriptor.
// Images are stored as JPEG together with their thumbnail; video thumbnails are
// produced in the background. A superseded file is removed once the new one is stored.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest) (_ *media.Descriptor, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "media", "ingest")
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		span.End()
	}()

	if req.Resource == nil || req.File.Body == nil {
		return nil, shared.ErrInvalidInput.WithDetails("resource and file are required")
	}

	size, err := measure(req.File)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithDetails("unreadable upload").WithCause(err)
	}

	t := media.ClassifyFile(req.File.Filename, req.File.MIMEType)
	if err := req.Field.PolicyFor(req.Row).Validate(t, size, s.limits); err != nil {
		return nil, err
	}

	folder := req.Resource.ImageFolder
	storedName := s.names.Next(req.Hint, media.CanonicalExtension(t, req.File.Filename, req.File.MIMEType))
	key := s.layout.OriginalKey(t, folder, storedName)
	log := s.logger.With(zap.String("resource", req.Resource.Name), zap.String("key", key))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrResource, req.Resource.Name,
		telemetry.SpanAttrMediaType, t.String(),
		telemetry.SpanAttrStoredName, storedName,
	)

	if _, err := req.File.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	switch t {
	case media.TypeImage:
		data, err := s.imager.Transcode(req.File.Body)
		if err != nil {
			return nil, shared.ErrValidation.WithDetails("image %q could not be decoded", req.File.Filename).WithCause(err)
		}
		if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg"); err != nil {
			return nil, fmt.Errorf("store %s: %w", key, err)
		}
		size = int64(len(data))
		if err := s.writeImageThumbnail(ctx, s.layout.ThumbKey(t, folder, storedName), data); err != nil {
			log.Warn("thumbnail generation failed", zap.Error(err))
		}
	default:
		if err := s.store.Put(ctx, key, req.File.Body, size, contentType(t, req.File.MIMEType)); err != nil {
			return nil, fmt.Errorf("store %s: %w", key, err)
		}
		if t == media.TypeVideo {
			s.scheduleVideoThumbnail(folder, storedName)
		}
	}

	log.Info("media ingested", zap.String("type", t.String()), zap.Int64("size", size))

	if req.Previous != "" && req.Previous != storedName {
		s.Remove(ctx, req.Resource, req.Previous)
	}

	return &media.Descriptor{
		Type:         t,
		StorageRoot:  s.layout.Dir(t, folder),
		StoredName:   storedName,
		OriginalName: req.File.Filename,
		Size:         size,
		MIMEType:     req.File.MIMEType,
	}, nil
}

// Locate returns the type, original key and thumbnail key of a stored name
func (s *IngestionService) Locate(d *resource.Descriptor, storedName string) (media.Type, string, string) {
	t := media.Classify(storedName)
	if !t.IsValid() {
		t = media.TypeDocument
	}
	return t, s.layout.OriginalKey(t, d.ImageFolder, storedName), s.layout.ThumbKey(t, d.ImageFolder, storedName)
}

// Remove deletes a stored original and its thumbnail. Failures are logged, never returned.
func (s *IngestionService) Remove(ctx context.Context, d *resource.Descriptor, storedName string) {
	if !media.ValidStoredName(storedName) {
		return
	}
	t, original, thumb := s.Locate(d, storedName)
	keys := []string{original}
	if media.HasThumbnail(t) {
		keys = append(keys, thumb)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete media", zap.String("key", key), zap.Error(err))
		}
	}
}

// GenerateThumbnail renders the thumbnail of a stored original
func (s *IngestionService) GenerateThumbnail(ctx context.Context, d *resource.Descriptor, storedName string) error {
	t, original, thumb := s.Locate(d, storedName)
	switch t {
	case media.TypeImage:
		rc, err := s.store.Open(ctx, original, 0, -1)
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := s.imager.Thumbnail(rc)
		if err != nil {
			return err
		}
		return s.store.Put(ctx, thumb, bytes.NewReader(data), int64(len(data)), "image/jpeg")
	case media.TypeVideo:
		return s.videoThumbnail(ctx, original, thumb)
	}
	return shared.ErrInvalidInput.WithDetails("%s files have no thumbnail", t)
}

func (s *IngestionService) writeImageThumbnail(ctx context.Context, key string, jpeg []byte) error {
	data, err := s.imager.Thumbnail(bytes.NewReader(jpeg))
	if err != nil {
		return err
	}
	return s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg")
}

func (s *IngestionService) scheduleVideoThumbnail(folder, storedName string) {
	if s.frames == nil || s.queue == nil {
		return
	}
	original := s.layout.OriginalKey(media.TypeVideo, folder, storedName)
	thumb := s.layout.ThumbKey(media.TypeVideo, folder, storedName)
	accepted := s.queue.Submit(thumb, func(ctx context.Context) error {
		return s.videoThumbnail(ctx, original, thumb)
	})
	if !accepted {
		s.logger.Warn("video thumbnail not scheduled", zap.String("key", thumb))
	}
}

// videoThumbnail extracts a frame from the original, copying it to a temporary file
// when the store is not backed by the local filesystem
func (s *IngestionService) videoThumbnail(ctx context.Context, original, thumb string) error {
	if s.frames == nil {
		return shared.ErrInvalidInput.WithDetails("video frame extraction is not configured")
	}

	src, ok := "", false
	if lp, isLocal := s.store.(LocalPather); isLocal {
		src, ok = lp.LocalPath(original)
	}
	if !ok {
		tmp, err := s.spool(ctx, original)
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		src = tmp
	}

	frame, err := s.frames.ExtractFrame(ctx, src)
	if err != nil {
		return err
	}
	data, err := s.imager.ThumbnailImage(frame)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, thumb, bytes.NewReader(data), int64(len(data)), "image/jpeg")
}

func (s *IngestionService) spool(ctx context.Context, key string) (string, error) {
	rc, err := s.store.Open(ctx, key, 0, -1)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	name := filepath.Join(os.TempDir(), "frame-"+uuid.NewString()+path.Ext(key))
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func measure(u Upload) (int64, error) {
	if u.Size >= 0 {
		return u.Size, nil
	}
	n, err := u.Body.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := u.Body.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return n, nil
}

func contentType(t media.Type, declared string) string {
	if declared != "" {
		return declared
	}
	switch t {
	case media.TypeVideo:
		return "video/mp4"
	case media.TypeAudio:
		return "audio/mpeg"
	}
	return "application/octet-stream"
}
