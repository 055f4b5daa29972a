package imageref

import (
	"net/url"
	"regexp"
	"strings"
)

type Kind int

const (
	None Kind = iota
	StorageKey
	External
)

func (k Kind) String() string {
	switch k {
	case StorageKey:
		return "storage_key"
	case External:
		return "external"
	default:
		return "none"
	}
}

// Ref is a classified image reference. Only StorageKey values may be
// re-signed or deleted; External values are kept verbatim.
type Ref struct {
	Kind  Kind
	Value string
}

func (r Ref) IsKey() bool {
	return r.Kind == StorageKey
}

var objectPath = regexp.MustCompile(`/storage/v1/object/(?:public|sign)/[^/]+/(.+)$`)

// Resolver turns stored values, signed URLs and public URLs back into the
// storage key they point at. Bucket names the path segment that precedes
// keys in path-style URLs; BaseURLs lists URL prefixes that are followed
// directly by a key, such as a virtual-hosted bucket origin.
type Resolver struct {
	Bucket   string
	BaseURLs []string
}

func New(bucket string, baseURLs ...string) Resolver {
	cleaned := make([]string, 0, len(baseURLs))
	for _, base := range baseURLs {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base != "" {
			cleaned = append(cleaned, base)
		}
	}
	if bucket == "" {
		bucket = "media"
	}
	return Resolver{Bucket: bucket, BaseURLs: cleaned}
}

func (r Resolver) Resolve(value string) Ref {
	value = strings.TrimSpace(value)
	if value == "" {
		return Ref{Kind: None}
	}

	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || u.Host == "" {
		if key := stripSlashes(value); key != "" {
			return Ref{Kind: StorageKey, Value: key}
		}
		return Ref{Kind: None}
	}

	if m := objectPath.FindStringSubmatch(u.Path); m != nil {
		return Ref{Kind: StorageKey, Value: m[1]}
	}

	segment := "/" + r.bucket() + "/"
	if idx := strings.Index(u.Path, segment); idx >= 0 {
		if key := stripSlashes(u.Path[idx+len(segment):]); key != "" {
			return Ref{Kind: StorageKey, Value: key}
		}
	}

	bare := u.Scheme + "://" + u.Host + u.Path
	for _, base := range r.BaseURLs {
		if strings.HasPrefix(bare, base+"/") {
			if key := stripSlashes(strings.TrimPrefix(bare, base)); key != "" {
				return Ref{Kind: StorageKey, Value: key}
			}
		}
	}

	return Ref{Kind: External, Value: stripSlashes(value)}
}

// ResolveToKey returns the canonical value to persist for an image input:
// a storage key, an external URL kept as-is, or "" for no image.
func (r Resolver) ResolveToKey(value string) string {
	return r.Resolve(value).Value
}

func (r Resolver) bucket() string {
	if r.Bucket == "" {
		return "media"
	}
	return r.Bucket
}

func stripSlashes(s string) string {
	return strings.TrimLeft(s, "/")
}
