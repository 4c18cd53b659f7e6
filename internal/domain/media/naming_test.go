package media

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Labial Mate Rojo", "labial-mate-rojo"},
		{"  Crème  brûlée!! ", "creme-brulee"},
		{"Sérum Facial (Ácido Hialurónico)", "serum-facial-acido-hialuronico"},
		{"../../etc/passwd", "etc-passwd"},
		{"", "archivo"},
		{"***", "archivo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}

	t.Run("long hints are truncated", func(t *testing.T) {
		s := Slug(strings.Repeat("abc ", 40))
		assert.LessOrEqual(t, len(s), maxSlugLength)
		assert.False(t, strings.HasSuffix(s, "-"))
	})
}

func TestNameGenerator(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 14, 5, 6, 789_000_000, time.UTC)

	t.Run("formats slug, compact timestamp and extension", func(t *testing.T) {
		g := NewNameGeneratorWithClock(func() time.Time { return fixed })
		assert.Equal(t, "labial-mate-rojo-20240309140506789.jpg", g.Next("Labial Mate Rojo", ".jpg"))
	})

	t.Run("names minted on a frozen clock stay distinct", func(t *testing.T) {
		g := NewNameGeneratorWithClock(func() time.Time { return fixed })
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			name := g.Next("x", ".mp4")
			assert.False(t, seen[name], "duplicate %s", name)
			seen[name] = true
		}
	})

	t.Run("generated names are safe stored names", func(t *testing.T) {
		g := NewNameGenerator()
		assert.True(t, ValidStoredName(g.Next("../evil/name", ".jpg")))
	})
}

func TestCanonicalExtension(t *testing.T) {
	assert.Equal(t, ".jpg", CanonicalExtension(TypeImage, "photo.PNG", "image/png"))
	assert.Equal(t, ".jpg", CanonicalExtension(TypeImage, "photo.webp", ""))
	assert.Equal(t, ".mp4", CanonicalExtension(TypeVideo, "clip.MP4", "video/mp4"))
	assert.Equal(t, ".webm", CanonicalExtension(TypeVideo, "clip", "video/webm"))
	assert.Equal(t, ".pdf", CanonicalExtension(TypeDocument, "manual.pdf", ""))
	assert.Equal(t, ".mp3", CanonicalExtension(TypeAudio, "noext", "audio/x-unknown"))
	assert.Equal(t, ".mp3", CanonicalExtension(TypeAudio, "voice.weba", "audio/webm"))
	assert.Equal(t, ".mp4", CanonicalExtension(TypeVideo, "clip", "video/x-msvideo"))
	assert.Equal(t, ".pdf", CanonicalExtension(TypeDocument, "data.dat", "application/octet-stream"))
}

func TestCanonicalExtension_ClassifiesBack(t *testing.T) {
	cases := []struct {
		typ  Type
		name string
		mime string
	}{
		{TypeVideo, "clip", "video/x-msvideo"},
		{TypeVideo, "clip.flv", "video/x-flv"},
		{TypeAudio, "voice.weba", "audio/webm"},
		{TypeAudio, "", ""},
		{TypeDocument, "sheet.numbers", "application/x-iwork"},
		{TypeImage, "photo.heic", "image/heic"},
	}
	for _, tc := range cases {
		ext := CanonicalExtension(tc.typ, tc.name, tc.mime)
		assert.Equal(t, tc.typ, Classify("x-20260101000000000"+ext), "%s %s", tc.name, tc.mime)
	}
}

func TestLayout(t *testing.T) {
	var l Layout

	assert.Equal(t, "images/producto/a.jpg", l.OriginalKey(TypeImage, "producto", "a.jpg"))
	assert.Equal(t, "images/producto/thumbs/a.jpg", l.ThumbKey(TypeImage, "producto", "a.jpg"))
	assert.Equal(t, "uploads/media/v.mp4", l.OriginalKey(TypeVideo, "leccion", "v.mp4"))
	assert.Equal(t, "uploads/media/thumbs/v.jpg", l.ThumbKey(TypeVideo, "leccion", "v.mp4"))
	assert.Equal(t, "uploads/docs/d.pdf", l.OriginalKey(TypeDocument, "leccion", "d.pdf"))

	assert.True(t, HasThumbnail(TypeImage))
	assert.True(t, HasThumbnail(TypeVideo))
	assert.False(t, HasThumbnail(TypeDocument))

	assert.False(t, ValidStoredName("../x.jpg"))
	assert.False(t, ValidStoredName("a/b.jpg"))
	assert.False(t, ValidStoredName(""))
	assert.True(t, ValidStoredName("a-20240101000000000.jpg"))
}
