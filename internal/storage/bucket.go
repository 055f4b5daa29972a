package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"portfolio/internal/config"
)

type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Bucket is the blob store the media library writes into. Every method acts
// on the single configured bucket.
type Bucket interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	BaseURL() string
	List(ctx context.Context, prefix string) ([]Object, error)
	Ensure(ctx context.Context) error
}

func New(ctx context.Context, cfg config.StorageConfig) (Bucket, error) {
	switch cfg.Driver {
	case "", "minio":
		return NewMinioBucket(cfg)
	case "s3":
		return NewS3Bucket(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ContentTypeFor infers a MIME type from the key extension, for listings
// whose backend does not report one.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".jpeg", ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func listPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
