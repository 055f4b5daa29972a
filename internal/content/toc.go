package content

import (
	"strings"
)

type TocEntry struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// TableOfContents lists every markdown heading of level two or deeper.
// Entry ids are the slug of the heading text.
func TableOfContents(markdown string) []TocEntry {
	entries := make([]TocEntry, 0)
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "##") {
			continue
		}
		title := strings.TrimSpace(strings.TrimLeft(line, "#"))
		id := NormalizeSlug(title)
		if title == "" || id == "" {
			continue
		}
		entries = append(entries, TocEntry{Title: title, ID: id})
	}
	return entries
}
