package catalog

import (
	"context"
	"time"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
)

// CountCache stores count matrices under a request key for a short time
type CountCache interface {
	// Get returns the cached matrix; ok is false on a miss
	Get(ctx context.Context, key string) (m resource.CountMatrix, ok bool, err error)
	Set(ctx context.Context, key string, m resource.CountMatrix, ttl time.Duration) error
}

// AssetManager stores and removes the files attached to records
type AssetManager interface {
	Ingest(ctx context.Context, req mediaapp.IngestRequest) (*media.Descriptor, error)
	// Remove deletes a stored file and its derivatives, ignoring missing ones
	Remove(ctx context.Context, d *resource.Descriptor, storedName string)
}

var _ AssetManager = (*mediaapp.IngestionService)(nil)
