package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultThumbAwaitTimeout bounds how long delivery waits for a pending thumbnail job
const DefaultThumbAwaitTimeout = 10 * time.Second

// Asset is a servable stored object
type Asset struct {
	Key         string
	Type        media.Type
	ContentType string
	Size        int64
	ModTime     time.Time
	ETag        string
	Thumbnail   bool
}

// Streamable reports whether byte ranges are honored for the asset
func (a *Asset) Streamable() bool {
	return a.Type == media.TypeVideo && !a.Thumbnail
}

// DeliveryService resolves registered media files and opens them for streaming
type DeliveryService struct {
	registry     *resource.Registry
	records      resource.RecordRepository
	store        ObjectStore
	ingestion    *IngestionService
	queue        ThumbnailQueue
	awaitTimeout time.Duration
	logger       *zap.Logger
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	registry *resource.Registry,
	records resource.RecordRepository,
	store ObjectStore,
	ingestion *IngestionService,
	queue ThumbnailQueue,
	awaitTimeout time.Duration,
	logger *zap.Logger,
) *DeliveryService {
	if awaitTimeout <= 0 {
		awaitTimeout = DefaultThumbAwaitTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryService{
		registry:     registry,
		records:      records,
		store:        store,
		ingestion:    ingestion,
		queue:        queue,
		awaitTimeout: awaitTimeout,
		logger:       logger,
	}
}

// Resolve checks that file is referenced by a live record of the resource and returns
// the asset to serve. A missing thumbnail is generated on demand.
func (s *DeliveryService) Resolve(ctx context.Context, resourceName, file string, thumb bool) (*Asset, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "media", "resolve",
		telemetry.WithAttribute(telemetry.SpanAttrResource, resourceName),
		telemetry.WithAttribute(telemetry.SpanAttrStoredName, file),
		telemetry.WithAttribute(telemetry.SpanAttrThumbnail, thumb),
	)
	defer span.End()

	d, err := s.registry.Resolve(resourceName)
	if err != nil {
		return nil, err
	}
	if len(d.FileFields) == 0 || !media.ValidStoredName(file) {
		return nil, shared.ErrNotFound.WithDetails("file %q", file)
	}

	referenced, err := s.records.FileReferenced(ctx, d, d.FileColumns(), file)
	if err != nil {
		return nil, shared.ErrUpstream.WithCause(err)
	}
	if !referenced {
		return nil, shared.ErrNotFound.WithDetails("file %q is not registered for %s", file, d.Name)
	}

	t, original, thumbKey := s.ingestion.Locate(d, file)
	key := original
	if thumb {
		if !media.HasThumbnail(t) {
			return nil, shared.ErrNotFound.WithDetails("%s files have no thumbnail", t)
		}
		key = thumbKey
	}

	info, err := s.store.Stat(ctx, key)
	if thumb && shared.IsNotFound(err) {
		telemetry.AddEvent(span, "thumbnail_missing")
		info, err = s.ensureThumbnail(ctx, d, file, thumbKey)
	}
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrNotFound.WithDetails("file %q", file)
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	return &Asset{
		Key:         key,
		Type:        t,
		ContentType: assetContentType(key),
		Size:        info.Size,
		ModTime:     info.ModTime,
		ETag:        ETag(info),
		Thumbnail:   thumb,
	}, nil
}

// Open streams length bytes of the asset starting at offset; a negative length reads to the end
func (s *DeliveryService) Open(ctx context.Context, a *Asset, offset, length int64) (io.ReadCloser, error) {
	return s.store.Open(ctx, a.Key, offset, length)
}

// ensureThumbnail waits briefly for a queued job, then renders the thumbnail itself
func (s *DeliveryService) ensureThumbnail(ctx context.Context, d *resource.Descriptor, file, key string) (ObjectInfo, error) {
	if s.queue != nil {
		wctx, cancel := context.WithTimeout(ctx, s.awaitTimeout)
		pending, err := s.queue.Await(wctx, key)
		cancel()
		if pending && err == nil {
			if info, err := s.store.Stat(ctx, key); err == nil {
				return info, nil
			}
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Debug("thumbnail job wait ended", zap.String("key", key), zap.Error(err))
		}
	}

	if err := s.ingestion.GenerateThumbnail(ctx, d, file); err != nil {
		s.logger.Warn("on-demand thumbnail failed", zap.String("key", key), zap.Error(err))
		return ObjectInfo{}, shared.ErrNotFound.WithDetails("thumbnail %q", file)
	}
	return s.store.Stat(ctx, key)
}

// ETag derives a strong validator from size and modification time
func ETag(info ObjectInfo) string {
	return `"` + strconv.FormatInt(info.Size, 16) + "-" + strconv.FormatInt(info.ModTime.UnixNano(), 16) + `"`
}

// mediaContentTypes covers extensions missing from the builtin MIME table
var mediaContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
}

func assetContentType(key string) string {
	if ct, ok := mediaContentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
