package content

import (
	"time"

	"portfolio/internal/apperr"
)

// Meta is the part every stored record shares. Version increases on each
// successful update and guards against stale writes.
type Meta struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meta) Metadata() *Meta {
	return m
}

// Media holds a record's image reference. Image is what clients send and
// read back (a display URL on reads); ImageKey is the canonical storage key
// derived from it on writes.
type Media struct {
	Image    *string `json:"image"`
	ImageKey *string `json:"imagePath"`
}

func (m *Media) MediaRef() *Media {
	return m
}

type Record interface {
	Metadata() *Meta
	Normalize()
	Validate() error
}

// Sluggable records own a unique slug that falls back to source when blank.
type Sluggable interface {
	SlugFields() (slug *string, source string)
}

type Illustrated interface {
	MediaRef() *Media
}

// Counted records keep a view counter that edits must carry over untouched.
type Counted interface {
	ViewCount() *int64
}

// Entity constrains generic code to pointer receivers of a record type.
type Entity[T any] interface {
	*T
	Record
}

// Prepare shapes r for storage: blank optional fields become nil, the slug is
// derived and normalized, then the variant's rules are checked.
func Prepare(r Record) error {
	r.Normalize()
	if s, ok := r.(Sluggable); ok {
		slug, source := s.SlugFields()
		*slug = NormalizeSlug(Or(*slug, source))
		if *slug == "" {
			if err := r.Validate(); err != nil {
				return err
			}
			return apperr.Validation("Slug is required")
		}
	}
	return r.Validate()
}

// Slug returns the slug of r, or "" when the variant has none.
func Slug(r Record) string {
	if s, ok := r.(Sluggable); ok {
		slug, _ := s.SlugFields()
		return *slug
	}
	return ""
}

// ImageKey returns the stored key of r, or "" when it has no image.
func ImageKey(r Record) string {
	if m, ok := r.(Illustrated); ok {
		return Deref(m.MediaRef().ImageKey)
	}
	return ""
}
