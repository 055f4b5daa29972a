package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"portfolio/internal/content"
	"portfolio/internal/imageref"
	"portfolio/internal/mocks"
	"portfolio/internal/models"
)

type failingSource struct{}

func (failingSource) ImageKeys(ctx context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func seedAsset(t *testing.T, bucket *mocks.MemoryBucket, key string, age time.Duration) {
	t.Helper()
	if err := bucket.Put(context.Background(), key, bytes.NewReader([]byte("x")), 1, "image/png"); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
	bucket.Age(key, age)
}

func TestReconcileRemovesOnlyOldOrphans(t *testing.T) {
	bucket := mocks.NewMemoryBucket()
	seedAsset(t, bucket, "uploads/used.png", 100*time.Hour)
	seedAsset(t, bucket, "uploads/orphan.png", 100*time.Hour)
	seedAsset(t, bucket, "uploads/fresh.png", time.Minute)

	media := NewMediaService(bucket, imageref.New("media", mocks.MemoryBucketBase), zerolog.Nop())
	store := mocks.NewMemoryStore[models.Project, *models.Project]()
	signed := mocks.MemoryBucketBase + "/uploads/used.png?X-Amz-Signature=abc"
	store.Seed(&models.Project{Meta: content.Meta{ID: "p1"}, Slug: "a", Title: "A", Media: content.Media{ImageKey: &signed}})
	projects := NewRecordService[models.Project, *models.Project]("project", store, media, zerolog.Nop())

	r := NewReconciler(bucket, media.Resolver(), []KeySource{projects}, 72*time.Hour, "", zerolog.Nop())

	dry, err := r.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(dry.Deleted) != 1 || bucket.Len() != 3 {
		t.Fatalf("dry run should report one orphan and delete nothing, got %+v", dry)
	}

	report, err := r.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Scanned != 3 || report.Referenced != 1 || report.Recent != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != "uploads/orphan.png" {
		t.Fatalf("unexpected deletions %v", report.Deleted)
	}
	if !bucket.Has("uploads/used.png") || !bucket.Has("uploads/fresh.png") || bucket.Has("uploads/orphan.png") {
		t.Fatal("wrong objects removed")
	}
}

func TestReconcileAbortsWhenReferencesUnknown(t *testing.T) {
	bucket := mocks.NewMemoryBucket()
	seedAsset(t, bucket, "uploads/orphan.png", 100*time.Hour)

	r := NewReconciler(bucket, imageref.New("media"), []KeySource{failingSource{}}, time.Hour, "", zerolog.Nop())
	if _, err := r.Run(context.Background(), false); err == nil {
		t.Fatal("expected error")
	}
	if !bucket.Has("uploads/orphan.png") {
		t.Fatal("asset removed although references could not be read")
	}
}
