package models

import "portfolio/internal/content"

type Project struct {
	content.Meta
	content.Media
	Title        string   `json:"title" validate:"required"`
	Slug         string   `json:"slug" validate:"required"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Technologies []string `json:"technologies"`
	Year         *string  `json:"year"`
	Link         *string  `json:"link"`
	Views        int64    `json:"views"`
}

func (p *Project) Normalize() {
	p.Title = trim(p.Title)
	p.Description = content.TrimToNil(p.Description)
	p.Category = content.TrimToNil(p.Category)
	p.Technologies = content.CleanList(p.Technologies)
	p.Year = content.TrimToNil(p.Year)
	p.Link = content.TrimToNil(p.Link)
	p.Image = content.TrimToNil(p.Image)
}

func (p *Project) Validate() error {
	return content.Check(p)
}

func (p *Project) SlugFields() (*string, string) {
	return &p.Slug, p.Title
}

func (p *Project) ViewCount() *int64 {
	return &p.Views
}
