package models

import "portfolio/internal/content"

type BlogPost struct {
	content.Meta
	content.Media
	Title           string             `json:"title" validate:"required"`
	Slug            string             `json:"slug" validate:"required"`
	Excerpt         *string            `json:"excerpt"`
	Category        *string            `json:"category"`
	Tags            []string           `json:"tags"`
	Date            *string            `json:"date"`
	ReadTime        *string            `json:"readTime"`
	Views           int64              `json:"views"`
	Author          map[string]any     `json:"author"`
	TableOfContents []content.TocEntry `json:"tableOfContents"`
	Content         *string            `json:"content"`
}

// Normalize fills the table of contents from the body headings when the
// author did not provide one.
func (b *BlogPost) Normalize() {
	b.Title = trim(b.Title)
	b.Excerpt = content.TrimToNil(b.Excerpt)
	b.Category = content.TrimToNil(b.Category)
	b.Tags = content.CleanList(b.Tags)
	b.Date = content.TrimToNil(b.Date)
	b.ReadTime = content.TrimToNil(b.ReadTime)
	b.Image = content.TrimToNil(b.Image)
	if len(b.TableOfContents) == 0 {
		b.TableOfContents = content.TableOfContents(content.Deref(b.Content))
	}
}

func (b *BlogPost) Validate() error {
	for _, entry := range b.TableOfContents {
		if trim(entry.Title) == "" || trim(entry.ID) == "" {
			return invalid("Table of contents entries need a title and an id")
		}
	}
	return content.Check(b)
}

func (b *BlogPost) SlugFields() (*string, string) {
	return &b.Slug, b.Title
}

func (b *BlogPost) ViewCount() *int64 {
	return &b.Views
}
