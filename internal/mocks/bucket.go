package mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"portfolio/internal/storage"
)

var ErrBucketDown = errors.New("bucket unavailable")

const MemoryBucketBase = "http://blob.test/media"

// MemoryBucket is an in-memory storage.Bucket. Signed URLs carry a fake
// signature so tests can tell them from public URLs.
type MemoryBucket struct {
	mu      sync.Mutex
	objects map[string]memoryObject

	PutErr     error
	RemoveErr  error
	PresignErr error
	ListErr    error

	Removed []string
}

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memoryObject)}
}

func (b *MemoryBucket) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if b.PutErr != nil {
		return b.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = memoryObject{data: data, contentType: contentType, modified: time.Now()}
	return nil
}

func (b *MemoryBucket) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Removed = append(b.Removed, key)
	if b.RemoveErr != nil {
		return b.RemoveErr
	}
	delete(b.objects, key)
	return nil
}

func (b *MemoryBucket) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if b.PresignErr != nil {
		return "", b.PresignErr
	}
	return fmt.Sprintf("%s/%s?X-Amz-Expires=%d&X-Amz-Signature=test", MemoryBucketBase, key, int(ttl.Seconds())), nil
}

func (b *MemoryBucket) PublicURL(key string) string {
	return MemoryBucketBase + "/" + strings.TrimLeft(key, "/")
}

func (b *MemoryBucket) BaseURL() string {
	return MemoryBucketBase
}

func (b *MemoryBucket) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]storage.Object, 0, len(b.objects))
	for key, obj := range b.objects {
		if prefix != "" && !strings.HasPrefix(key, strings.TrimSuffix(prefix, "/")+"/") {
			continue
		}
		out = append(out, storage.Object{
			Key:          key,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.modified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *MemoryBucket) Ensure(ctx context.Context) error {
	return nil
}

func (b *MemoryBucket) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *MemoryBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// Age backdates key so it looks older than d.
func (b *MemoryBucket) Age(key string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if obj, ok := b.objects[key]; ok {
		obj.modified = time.Now().Add(-d)
		b.objects[key] = obj
	}
}
