package media

import (
	"path"
	"strings"
)

// Type is the classified kind of a media file
type Type string

const (
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeDocument Type = "document"
	TypeUnknown  Type = "unknown"
)

// IsValid checks if the type is one of the known, storable types
func (t Type) IsValid() bool {
	switch t {
	case TypeImage, TypeVideo, TypeAudio, TypeDocument:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// documentMIMETypes is the explicit set of document content types
var documentMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-powerpoint":                                     true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.oasis.opendocument.text":                                   true,
	"application/vnd.oasis.opendocument.spreadsheet":                            true,
	"application/rtf": true,
	"text/plain":      true,
	"text/csv":        true,
	"text/markdown":   true,
}

// extensions is the per-type allow-list
var extensions = map[Type][]string{
	TypeImage:    {".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"},
	TypeVideo:    {".mp4", ".webm", ".mov", ".m4v", ".mkv", ".avi", ".ogv"},
	TypeAudio:    {".mp3", ".wav", ".ogg", ".oga", ".m4a", ".aac", ".flac"},
	TypeDocument: {".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".rtf", ".txt", ".csv", ".md"},
}

var extensionIndex = buildExtensionIndex()

func buildExtensionIndex() map[string]Type {
	idx := make(map[string]Type)
	for t, exts := range extensions {
		for _, ext := range exts {
			idx[ext] = t
		}
	}
	return idx
}

// Extensions returns a copy of the allow-list for a type
func Extensions(t Type) []string {
	exts := extensions[t]
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// Classify classifies a filename or a MIME type.
// MIME prefixes win, then the document MIME set, then the extension allow-list.
func Classify(filenameOrMIME string) Type {
	s := strings.ToLower(strings.TrimSpace(filenameOrMIME))
	if s == "" {
		return TypeUnknown
	}

	mimeType := s
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return TypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return TypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return TypeAudio
	case documentMIMETypes[mimeType]:
		return TypeDocument
	}

	ext := path.Ext(s)
	if ext == "" && !strings.Contains(s, "/") {
		ext = "." + s
	}
	if t, ok := extensionIndex[ext]; ok {
		return t
	}
	return TypeUnknown
}

// ClassifyFile classifies an upload by its declared content type first and its filename second
func ClassifyFile(filename, mimeType string) Type {
	if t := Classify(mimeType); t != TypeUnknown {
		return t
	}
	return Classify(filename)
}
