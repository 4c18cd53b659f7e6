package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
)

var _ mediaapp.FrameExtractor = (*FFmpegExtractor)(nil)

// FFmpegExtractor grabs video frames by running the ffmpeg binary
type FFmpegExtractor struct {
	binary string
	// seek offsets tried in order; short clips have no frame at one second
	offsets []string
}

// NewFFmpegExtractor creates an extractor for the given ffmpeg binary
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{binary: binary, offsets: []string{"00:00:01", "00:00:00"}}
}

// Available reports whether the ffmpeg binary can be found
func (e *FFmpegExtractor) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// ExtractFrame returns one decoded frame of the video at videoPath
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, videoPath string) (image.Image, error) {
	var lastErr error
	for _, at := range e.offsets {
		img, err := e.frameAt(ctx, videoPath, at)
		if err == nil {
			return img, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (e *FFmpegExtractor) frameAt(ctx context.Context, videoPath, at string) (image.Image, error) {
	cmd := exec.CommandContext(ctx, e.binary,
		"-hide_banner", "-loglevel", "error",
		"-ss", at, "-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg at %s: %w: %s", at, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no frame at " + at)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg frame: %w", err)
	}
	return img, nil
}
