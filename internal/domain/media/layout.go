package media

import (
	"path"
	"strings"
)

const (
	imagesDir = "images"
	mediaDir  = "uploads/media"
	docsDir   = "uploads/docs"
	thumbsDir = "thumbs"
)

// Layout computes storage keys relative to the media root.
// Keys always use forward slashes.
type Layout struct{}

// Dir returns the storage root for a type; images get a per-resource subfolder
func (Layout) Dir(t Type, folder string) string {
	switch t {
	case TypeImage:
		if folder == "" {
			return imagesDir
		}
		return path.Join(imagesDir, folder)
	case TypeVideo, TypeAudio:
		return mediaDir
	default:
		return docsDir
	}
}

// OriginalKey returns the key of an original
func (l Layout) OriginalKey(t Type, folder, storedName string) string {
	return path.Join(l.Dir(t, folder), storedName)
}

// ThumbKey returns the key of a thumbnail.
// Video thumbnails are JPEG frames named after the original's base name.
func (l Layout) ThumbKey(t Type, folder, storedName string) string {
	name := storedName
	if t == TypeVideo {
		name = strings.TrimSuffix(storedName, path.Ext(storedName)) + ".jpg"
	}
	return path.Join(l.Dir(t, folder), thumbsDir, name)
}

// HasThumbnail reports whether assets of type t get a thumbnail
func HasThumbnail(t Type) bool {
	return t == TypeImage || t == TypeVideo
}

// ValidStoredName rejects names that could escape the storage root
func ValidStoredName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// Descriptor describes an ingested media asset
type Descriptor struct {
	Type         Type   `json:"type"`
	StorageRoot  string `json:"storage_root"`
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MIMEType     string `json:"mime_type"`
}
