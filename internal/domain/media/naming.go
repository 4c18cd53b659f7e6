package media

import (
	"path"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength = 60
	fallbackSlug  = "archivo"
	timestampFmt  = "20060102150405"
)

// Slug turns a human hint into a lowercase ASCII slug.
// Diacritics are stripped and runs of other characters collapse to a single dash.
func Slug(hint string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, hint)
	if err != nil {
		folded = hint
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// canonicalExtByMIME maps content types to an extension for uploads without one
var canonicalExtByMIME = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
	"audio/ogg":       ".ogg",
	"audio/mp4":       ".m4a",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/csv":        ".csv",
}

// defaultExtByType is used when neither the filename nor the MIME type yields an
// allow-listed extension. Stored names must classify back to their type.
var defaultExtByType = map[Type]string{
	TypeVideo:    ".mp4",
	TypeAudio:    ".mp3",
	TypeDocument: ".pdf",
}

// CanonicalExtension returns the extension a stored file gets.
// Images always become JPEG regardless of their source format. The result is
// always on the allow-list of t, so Classify(storedName) == t holds.
func CanonicalExtension(t Type, originalName, mimeType string) string {
	if t == TypeImage {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(originalName))
	if ext != "" && Classify(ext) == t {
		return ext
	}
	if ext, ok := canonicalExtByMIME[strings.ToLower(mimeType)]; ok && Classify(ext) == t {
		return ext
	}
	if ext, ok := defaultExtByType[t]; ok {
		return ext
	}
	return ".pdf"
}

// NameGenerator mints stored names. Timestamps are strictly increasing per generator,
// so two names minted in the same millisecond never collide.
type NameGenerator struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewNameGenerator creates a generator backed by the wall clock
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{now: time.Now}
}

// NewNameGeneratorWithClock creates a generator with a custom clock
func NewNameGeneratorWithClock(now func() time.Time) *NameGenerator {
	return &NameGenerator{now: now}
}

// Next returns slug(hint) + "-" + compact timestamp + ext
func (g *NameGenerator) Next(hint, ext string) string {
	ts := g.tick()
	return Slug(hint) + "-" + ts.Format(timestampFmt) + ts.Format(".000")[1:] + ext
}

func (g *NameGenerator) tick() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UTC().Truncate(time.Millisecond)
	if !ts.After(g.last) {
		ts = g.last.Add(time.Millisecond)
	}
	g.last = ts
	return ts
}
