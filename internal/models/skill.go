package models

import (
	"strings"

	"portfolio/internal/apperr"
	"portfolio/internal/content"
)

type Skill struct {
	content.Meta
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required"`
	Level    int    `json:"level"`
}

// Normalize clamps the confidence level into 0..100.
func (s *Skill) Normalize() {
	s.Name = trim(s.Name)
	s.Category = trim(s.Category)
	s.Level = min(100, max(0, s.Level))
}

func (s *Skill) Validate() error {
	return content.Check(s)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func invalid(msg string) error {
	return apperr.Validation(msg)
}
