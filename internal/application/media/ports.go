package media

import (
	"context"
	"image"
	"io"
	"time"
)

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Size    int64
	ModTime time.Time
}

// ObjectStore persists media objects under slash-separated keys.
// Implemented by the local filesystem and S3 backends.
type ObjectStore interface {
	// Put stores body under key; readers never observe a partially written object
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	// Stat returns shared.ErrNotFound when the key does not exist
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Open returns length bytes starting at offset; a negative length reads to the end
	Open(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
	// Delete removes key; deleting a missing key succeeds
	Delete(ctx context.Context, key string) error
}

// LocalPather is implemented by stores that keep objects on the local filesystem
type LocalPather interface {
	LocalPath(key string) (string, bool)
}

// Imager transcodes and thumbnails media
type Imager interface {
	// Transcode decodes any supported image and re-encodes it as JPEG
	Transcode(r io.Reader) ([]byte, error)
	// Thumbnail decodes an image and returns a JPEG scaled to the configured width
	Thumbnail(r io.Reader) ([]byte, error)
	// ThumbnailImage encodes an already decoded frame as a thumbnail
	ThumbnailImage(img image.Image) ([]byte, error)
}

// FrameExtractor grabs a representative frame from a video file
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string) (image.Image, error)
}

// ThumbnailQueue runs thumbnail jobs in the background and tracks the pending ones
type ThumbnailQueue interface {
	// Submit enqueues fn under key; a key already pending is not enqueued twice
	Submit(key string, fn func(ctx context.Context) error) bool
	// Await blocks until the job for key finishes or ctx is done.
	// It reports false when no job for key is pending.
	Await(ctx context.Context, key string) (bool, error)
}
