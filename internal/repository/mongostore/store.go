// Package mongostore keeps content records in MongoDB. Each record is saved
// inside an envelope whose top-level fields carry what the store queries on;
// the record itself round-trips untouched.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/ids"
	"portfolio/internal/repository"
)

type envelope[T any] struct {
	ID        string    `bson:"_id"`
	Version   int       `bson:"version"`
	Slug      string    `bson:"slug,omitempty"`
	Views     int64     `bson:"views"`
	ImageKey  string    `bson:"imageKey,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
	Record    T         `bson:"record"`
}

func wrap[T any, P content.Entity[T]](rec P) envelope[T] {
	meta := rec.Metadata()
	env := envelope[T]{
		ID:        meta.ID,
		Version:   meta.Version,
		Slug:      content.Slug(rec),
		ImageKey:  content.ImageKey(rec),
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Record:    *rec,
	}
	if c, ok := any(rec).(content.Counted); ok {
		env.Views = *c.ViewCount()
	}
	return env
}

// unwrap copies the envelope's authoritative fields back onto the record.
func unwrap[T any, P content.Entity[T]](env envelope[T]) *T {
	rec := P(&env.Record)
	meta := rec.Metadata()
	meta.ID = env.ID
	meta.Version = env.Version
	meta.CreatedAt = env.CreatedAt
	meta.UpdatedAt = env.UpdatedAt
	if c, ok := any(rec).(content.Counted); ok {
		*c.ViewCount() = env.Views
	}
	return &env.Record
}

// Store is a RecordStore over one collection. Sluggable variants also get
// SlugIndex, and counted variants ViewCounter.
type Store[T any, P content.Entity[T]] struct {
	coll *mongo.Collection
	sort bson.D
}

func New[T any, P content.Entity[T]](db *mongo.Database, collection string) *Store[T, P] {
	return &Store[T, P]{
		coll: db.Collection(collection),
		sort: bson.D{{Key: "createdAt", Value: -1}},
	}
}

// EnsureIndexes creates the unique slug index. Records without a slug are
// left out of it.
func (s *Store[T, P]) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().
				SetName("slug_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "slug", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
		{
			Keys:    bson.D{{Key: "imageKey", Value: 1}},
			Options: options.Index().SetName("image_key").SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure indexes on %s: %w", s.coll.Name(), err)
	}
	return nil
}

func (s *Store[T, P]) Insert(ctx context.Context, rec *T) error {
	meta := P(rec).Metadata()
	if meta.ID == "" {
		meta.ID = ids.New()
	}
	now := time.Now().UTC()
	meta.Version = 1
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, wrap[T, P](rec)); err != nil {
		return writeError(err)
	}
	return nil
}

func (s *Store[T, P]) Update(ctx context.Context, rec *T) error {
	meta := P(rec).Metadata()
	expected := meta.Version

	var current envelope[T]
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: meta.ID}}).Decode(&current)
	if err != nil {
		return notFound(err)
	}
	if current.Version != expected {
		return repository.ErrStale
	}

	next := wrap[T, P](rec)
	next.Version = expected + 1
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.Views = current.Views

	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: meta.ID}, {Key: "version", Value: expected}}, next)
	if err != nil {
		return writeError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrStale
	}

	meta.Version = next.Version
	meta.CreatedAt = next.CreatedAt
	meta.UpdatedAt = next.UpdatedAt
	if c, ok := any(P(rec)).(content.Counted); ok {
		*c.ViewCount() = next.Views
	}
	return nil
}

func (s *Store[T, P]) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store[T, P]) Get(ctx context.Context, id string) (*T, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store[T, P]) List(ctx context.Context) ([]*T, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(s.sort))
	if err != nil {
		return nil, err
	}
	var envs []envelope[T]
	if err := cur.All(ctx, &envs); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(envs))
	for _, env := range envs {
		out = append(out, unwrap[T, P](env))
	}
	return out, nil
}

func (s *Store[T, P]) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store[T, P]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	return s.findOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

func (s *Store[T, P]) SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	filter := bson.D{{Key: "slug", Value: slug}}
	if excludeID != "" {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}})
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store[T, P]) IncrementViews(ctx context.Context, slug string) (int64, error) {
	var env envelope[T]
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "slug", Value: slug}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&env)
	if err != nil {
		return 0, notFound(err)
	}
	return env.Views, nil
}

func (s *Store[T, P]) ImageKeys(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "imageKey", Value: bson.D{{Key: "$exists", Value: true}}}},
		options.Find().SetProjection(bson.D{{Key: "imageKey", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ImageKey string `bson:"imageKey"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.ImageKey != "" {
			keys = append(keys, r.ImageKey)
		}
	}
	return keys, nil
}

func (s *Store[T, P]) findOne(ctx context.Context, filter bson.D) (*T, error) {
	var env envelope[T]
	if err := s.coll.FindOne(ctx, filter).Decode(&env); err != nil {
		return nil, notFound(err)
	}
	return unwrap[T, P](env), nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

func writeError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrSlugTaken
	}
	return err
}

// Connect opens a client and checks it can reach the deployment.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
