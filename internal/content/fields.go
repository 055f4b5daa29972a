package content

import "strings"

// TrimToNil trims *s and returns nil when nothing is left.
func TrimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// CleanList trims every entry, drops blanks and duplicates, and keeps the
// first-seen order. The result is never nil so it stores as an empty array.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func Ptr(s string) *string {
	return &s
}

// Or returns the first non-blank value.
func Or(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
