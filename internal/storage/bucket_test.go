package storage

import (
	"testing"
	"time"

	"portfolio/internal/config"
)

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"uploads/a.png":  "image/png",
		"uploads/b.JPEG": "image/jpeg",
		"uploads/c.jpg":  "image/jpeg",
		"uploads/d.webp": "image/webp",
		"uploads/e":      "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentTypeFor(key); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestMinioPublicURL(t *testing.T) {
	b, err := NewMinioBucket(config.StorageConfig{
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "media",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewMinioBucket: %v", err)
	}
	if got := b.PublicURL("uploads/x.png"); got != "http://localhost:9000/media/uploads/x.png" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestMinioPublicBaseOverride(t *testing.T) {
	b, err := NewMinioBucket(config.StorageConfig{
		Endpoint:      "localhost:9000",
		Bucket:        "media",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("NewMinioBucket: %v", err)
	}
	if got := b.PublicURL("/uploads/x.png"); got != "https://cdn.example.com/uploads/x.png" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestListPrefix(t *testing.T) {
	if got := listPrefix("/uploads/"); got != "uploads/" {
		t.Fatalf("unexpected prefix %q", got)
	}
	if got := listPrefix(""); got != "" {
		t.Fatalf("unexpected prefix %q", got)
	}
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Now()
	objs := []Object{
		{Key: "old", LastModified: now.Add(-time.Hour)},
		{Key: "new", LastModified: now},
	}
	sortNewestFirst(objs)
	if objs[0].Key != "new" {
		t.Fatalf("expected newest first, got %v", objs)
	}
}
