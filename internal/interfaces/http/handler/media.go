package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// immutableCache is sent with every asset; stored names never change content
const immutableCache = "public, max-age=31536000, immutable"

// MediaUseCases is what the media handler needs from the delivery service
type MediaUseCases interface {
	Resolve(ctx context.Context, resourceName, file string, thumb bool) (*mediaapp.Asset, error)
	Open(ctx context.Context, a *mediaapp.Asset, offset, length int64) (io.ReadCloser, error)
}

var _ MediaUseCases = (*mediaapp.DeliveryService)(nil)

// MediaHandler streams stored media files
type MediaHandler struct {
	BaseHandler
	delivery MediaUseCases
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(delivery MediaUseCases) *MediaHandler {
	return &MediaHandler{delivery: delivery}
}

// Serve handles GET /media/resources/:resource?file=&thumb=
func (h *MediaHandler) Serve(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		h.BadRequest(c, "file is required")
		return
	}
	thumb := truthy(c.Query("thumb"))

	ctx := c.Request.Context()
	asset, err := h.delivery.Resolve(ctx, c.Param("resource"), file, thumb)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if notModified(c.Request, asset) {
		setAssetHeaders(c.Writer.Header(), asset)
		c.Status(http.StatusNotModified)
		return
	}

	status := http.StatusOK
	offset, length := int64(0), asset.Size
	var contentRange string
	if asset.Streamable() {
		if r, ok := parseRange(c.GetHeader("Range"), asset.Size); ok {
			status = http.StatusPartialContent
			offset, length = r.Start, r.Length()
			contentRange = r.ContentRange(asset.Size)
		}
	}

	body, err := h.delivery.Open(ctx, asset, offset, length)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer body.Close()

	header := c.Writer.Header()
	setAssetHeaders(header, asset)
	if contentRange != "" {
		header.Set("Content-Range", contentRange)
	}
	header.Set("Content-Type", asset.ContentType)
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	c.Status(status)
	if c.Request.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(c.Writer, body); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		logger.GetGinLogger(c).Warn("media stream interrupted",
			zap.String("key", asset.Key),
			zap.Error(err),
		)
	}
}

func setAssetHeaders(header http.Header, a *mediaapp.Asset) {
	header.Set("ETag", a.ETag)
	header.Set("Cache-Control", immutableCache)
	if !a.ModTime.IsZero() {
		header.Set("Last-Modified", a.ModTime.UTC().Format(http.TimeFormat))
	}
	if a.Streamable() {
		header.Set("Accept-Ranges", "bytes")
	} else {
		header.Set("Accept-Ranges", "none")
	}
}

// notModified evaluates If-None-Match first and falls back to If-Modified-Since
func notModified(r *http.Request, a *mediaapp.Asset) bool {
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		return etagMatches(inm, a.ETag)
	}
	ims := r.Header.Get("If-Modified-Since")
	if ims == "" || a.ModTime.IsZero() {
		return false
	}
	t, err := http.ParseTime(ims)
	if err != nil {
		return false
	}
	return !a.ModTime.Truncate(time.Second).After(t)
}

// etagMatches uses weak comparison over a comma separated list
func etagMatches(header, etag string) bool {
	if etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
