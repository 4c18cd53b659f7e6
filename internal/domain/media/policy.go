package media

import (
	"fmt"
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
)

const megabyte int64 = 1 << 20

// Limits holds the maximum accepted size per media type, in bytes
type Limits struct {
	Image    int64
	Video    int64
	Audio    int64
	Document int64
}

// DefaultLimits returns the default size limits
func DefaultLimits() Limits {
	return Limits{
		Image:    50 * megabyte,
		Video:    300 * megabyte,
		Audio:    50 * megabyte,
		Document: 50 * megabyte,
	}
}

// Max returns the limit for a type, zero for unknown types
func (l Limits) Max(t Type) int64 {
	switch t {
	case TypeImage:
		return l.Image
	case TypeVideo:
		return l.Video
	case TypeAudio:
		return l.Audio
	case TypeDocument:
		return l.Document
	}
	return 0
}

// FieldPolicy lists the media types a file-bearing field accepts.
// The first entry is the preferred type; the rest are legacy fallbacks.
type FieldPolicy struct {
	Accepts []Type
}

// NewFieldPolicy creates a policy, preferred type first
func NewFieldPolicy(preferred Type, fallbacks ...Type) FieldPolicy {
	return FieldPolicy{Accepts: append([]Type{preferred}, fallbacks...)}
}

// Preferred returns the primary type of the field
func (p FieldPolicy) Preferred() Type {
	if len(p.Accepts) == 0 {
		return TypeUnknown
	}
	return p.Accepts[0]
}

// Allows reports whether t is acceptable for the field
func (p FieldPolicy) Allows(t Type) bool {
	for _, a := range p.Accepts {
		if a == t {
			return true
		}
	}
	return false
}

// Validate checks a classified upload against the policy and the size limits
func (p FieldPolicy) Validate(t Type, size int64, limits Limits) error {
	if !t.IsValid() || !p.Allows(t) {
		return shared.ErrValidation.WithDetails("file type %s not allowed, expected one of %s", t, p.describe())
	}
	if max := limits.Max(t); size > max {
		return shared.ErrValidation.WithDetails("%s exceeds the maximum size of %d MB", t, max/megabyte)
	}
	return nil
}

func (p FieldPolicy) describe() string {
	names := make([]string, len(p.Accepts))
	for i, t := range p.Accepts {
		names[i] = t.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(names, ", "))
}
