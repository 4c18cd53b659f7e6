// Package imaging decodes, scales and re-encodes media images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// decoders registered with image.Decode
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
)

var _ mediaapp.Imager = (*Processor)(nil)

// Defaults used when Options leaves a field unset
const (
	DefaultThumbWidth  = 400
	DefaultJPEGQuality = 85
	DefaultMaxPixels   = 50_000_000
)

// ErrUndecodable is returned for input that is not a supported image
var ErrUndecodable = errors.New("imaging: unsupported or corrupt image")

// ErrTooLarge is returned when the declared dimensions exceed the pixel budget
var ErrTooLarge = errors.New("imaging: image dimensions exceed the pixel budget")

// Options configures a Processor
type Options struct {
	ThumbWidth  int
	JPEGQuality int
	// MaxPixels bounds width*height, checked from the header before decoding
	MaxPixels int64
}

// Processor transcodes images to JPEG and produces fixed-width thumbnails
type Processor struct {
	thumbWidth int
	quality    int
	maxPixels  int64
}

// NewProcessor creates a Processor
func NewProcessor(opts Options) *Processor {
	p := &Processor{thumbWidth: opts.ThumbWidth, quality: opts.JPEGQuality, maxPixels: opts.MaxPixels}
	if p.thumbWidth <= 0 {
		p.thumbWidth = DefaultThumbWidth
	}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = DefaultJPEGQuality
	}
	if p.maxPixels <= 0 {
		p.maxPixels = DefaultMaxPixels
	}
	return p
}

// Transcode decodes r and re-encodes it as JPEG at full size
func (p *Processor) Transcode(r io.Reader) ([]byte, error) {
	img, err := p.decode(r)
	if err != nil {
		return nil, err
	}
	return p.encode(img)
}

// Thumbnail decodes r and returns a JPEG thumbnail
func (p *Processor) Thumbnail(r io.Reader) ([]byte, error) {
	img, err := p.decode(r)
	if err != nil {
		return nil, err
	}
	return p.ThumbnailImage(img)
}

// ThumbnailImage scales img to the thumbnail width, preserving aspect ratio.
// Images narrower than the width are not upscaled.
func (p *Processor) ThumbnailImage(img image.Image) ([]byte, error) {
	return p.encode(Fit(img, p.thumbWidth))
}

// Fit scales img down to width, keeping its aspect ratio
func Fit(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width || b.Dx() == 0 {
		return img
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// decode reads the header first so oversized images are rejected before any
// pixel buffer is allocated
func (p *Processor) decode(r io.Reader) (image.Image, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions", ErrUndecodable)
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

// encode flattens transparency onto white, since JPEG has no alpha channel
func (p *Processor) encode(img image.Image) ([]byte, error) {
	b := img.Bounds()
	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
