package mongostore

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"portfolio/internal/content"
	"portfolio/internal/models"
	"portfolio/internal/repository"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &models.Project{
		Meta:  content.Meta{ID: "p1", Version: 4, CreatedAt: created, UpdatedAt: created},
		Media: content.Media{ImageKey: content.Ptr("uploads/a.png")},
		Title: "Atlas",
		Slug:  "atlas",
		Views: 12,
	}

	env := wrap[models.Project, *models.Project](p)
	if env.ID != "p1" || env.Slug != "atlas" || env.ImageKey != "uploads/a.png" || env.Views != 12 || env.Version != 4 {
		t.Fatalf("unexpected envelope %+v", env)
	}

	raw, err := bson.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded envelope[models.Project]
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Envelope fields win over whatever the embedded record carries.
	decoded.Views = 13
	decoded.Version = 5
	got := unwrap[models.Project, *models.Project](decoded)
	if got.ID != "p1" || got.Views != 13 || got.Version != 5 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record %+v", got)
	}
	if content.Deref(got.ImageKey) != "uploads/a.png" || got.Title != "Atlas" {
		t.Fatalf("record fields lost: %+v", got)
	}
}

func TestEnvelopeWithoutSlugOrImage(t *testing.T) {
	m := &models.Message{Meta: content.Meta{ID: "m1"}, Name: content.Ptr("Ada"), Status: models.MessageStatusUnread}
	env := wrap[models.Message, *models.Message](m)
	if env.Slug != "" || env.ImageKey != "" || env.Views != 0 {
		t.Fatalf("unexpected envelope %+v", env)
	}

	raw, err := bson.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := doc["slug"]; ok {
		t.Fatalf("records without a slug must stay out of the slug index: %v", doc)
	}
}

func TestErrorMapping(t *testing.T) {
	if !errors.Is(notFound(mongo.ErrNoDocuments), repository.ErrNotFound) {
		t.Fatalf("expected ErrNoDocuments to map to ErrNotFound")
	}
	other := errors.New("socket closed")
	if notFound(other) != other || writeError(other) != other {
		t.Fatalf("unrelated errors must pass through")
	}
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	if !errors.Is(writeError(dup), repository.ErrSlugTaken) {
		t.Fatalf("expected duplicate key to map to ErrSlugTaken")
	}
}
