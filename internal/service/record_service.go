package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"portfolio/internal/apperr"
	"portfolio/internal/content"
	"portfolio/internal/imageref"
	"portfolio/internal/repository"
)

const (
	msgSlugTaken = "Slug already exists, choose another slug"
	msgStale     = "This record changed since you loaded it, reload and try again"
)

// RecordStore is the row store of one record variant. Update must only apply
// when the stored version equals rec's version and must then bump it.
type RecordStore[T any] interface {
	Insert(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Count(ctx context.Context) (int, error)
}

// SlugIndex is implemented by stores of sluggable variants.
type SlugIndex[T any] interface {
	SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
}

type ViewCounter interface {
	IncrementViews(ctx context.Context, slug string) (int64, error)
}

type KeySource interface {
	ImageKeys(ctx context.Context) ([]string, error)
}

// ImageLinks is what record services need from the media gateway.
type ImageLinks interface {
	Resolver() imageref.Resolver
	DisplayURL(ctx context.Context, stored string) *string
}

// RecordService validates and persists one record variant. Behaviour that
// only some variants have (slugs, images, view counters) is discovered
// through the content capability interfaces.
type RecordService[T any, P content.Entity[T]] struct {
	entity string
	store  RecordStore[T]
	links  ImageLinks
	log    zerolog.Logger
}

func NewRecordService[T any, P content.Entity[T]](entity string, store RecordStore[T], links ImageLinks, log zerolog.Logger) *RecordService[T, P] {
	return &RecordService[T, P]{
		entity: entity,
		store:  store,
		links:  links,
		log:    log.With().Str("entity", entity).Logger(),
	}
}

func (s *RecordService[T, P]) Entity() string {
	return s.entity
}

func (s *RecordService[T, P]) Create(ctx context.Context, in P) (P, error) {
	if err := s.prepare(in); err != nil {
		return nil, err
	}

	meta := in.Metadata()
	meta.ID = ""
	meta.Version = 0
	if c, ok := any(in).(content.Counted); ok && *c.ViewCount() < 0 {
		*c.ViewCount() = 0
	}

	if err := s.ensureSlugFree(ctx, in, ""); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, (*T)(in)); err != nil {
		return nil, s.storeError("create", err)
	}

	s.present(ctx, in)
	return in, nil
}

// Update replaces the record stored under id. A non-zero version on the
// input must match the stored one. View counters are carried over from the
// stored record.
func (s *RecordService[T, P]) Update(ctx context.Context, id string, in P) (P, error) {
	if id == "" {
		return nil, apperr.Validation(fmt.Sprintf("Missing %s id", s.entity))
	}
	if err := s.prepare(in); err != nil {
		return nil, err
	}

	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError("load", err)
	}
	current := P(stored)

	meta := in.Metadata()
	if meta.Version != 0 && meta.Version != current.Metadata().Version {
		return nil, apperr.Conflict(msgStale)
	}
	meta.ID = id
	meta.Version = current.Metadata().Version
	meta.CreatedAt = current.Metadata().CreatedAt
	if c, ok := any(in).(content.Counted); ok {
		*c.ViewCount() = *any(current).(content.Counted).ViewCount()
	}

	if err := s.ensureSlugFree(ctx, in, id); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, (*T)(in)); err != nil {
		return nil, s.storeError("update", err)
	}

	s.present(ctx, in)
	return in, nil
}

// Patch loads the record, applies mutate, and writes it back guarded by the
// version it was loaded at.
func (s *RecordService[T, P]) Patch(ctx context.Context, id string, mutate func(P) error) (P, error) {
	if id == "" {
		return nil, apperr.Validation(fmt.Sprintf("Missing %s id", s.entity))
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError("load", err)
	}
	rec := P(stored)
	if m, ok := any(rec).(content.Illustrated); ok {
		m.MediaRef().Image = m.MediaRef().ImageKey
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}
	return s.Update(ctx, id, rec)
}

// Delete removes the record only. Its asset, if any, is left for the caller.
func (s *RecordService[T, P]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation(fmt.Sprintf("Missing %s id", s.entity))
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError("delete", err)
	}
	return nil
}

func (s *RecordService[T, P]) Get(ctx context.Context, id string) (P, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError("load", err)
	}
	s.present(ctx, P(rec))
	return P(rec), nil
}

func (s *RecordService[T, P]) GetBySlug(ctx context.Context, slug string) (P, error) {
	idx, ok := any(s.store).(SlugIndex[T])
	if !ok {
		return nil, apperr.NotFound(s.entity + " not found")
	}
	rec, err := idx.GetBySlug(ctx, content.NormalizeSlug(slug))
	if err != nil {
		return nil, s.storeError("load", err)
	}
	s.present(ctx, P(rec))
	return P(rec), nil
}

func (s *RecordService[T, P]) List(ctx context.Context) ([]P, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeError("list", err)
	}
	out := make([]P, 0, len(recs))
	for _, rec := range recs {
		s.present(ctx, P(rec))
		out = append(out, P(rec))
	}
	return out, nil
}

func (s *RecordService[T, P]) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, s.storeError("count", err)
	}
	return n, nil
}

func (s *RecordService[T, P]) IncrementViews(ctx context.Context, slug string) (int64, error) {
	counter, ok := any(s.store).(ViewCounter)
	if !ok {
		return 0, apperr.NotFound(s.entity + " not found")
	}
	views, err := counter.IncrementViews(ctx, content.NormalizeSlug(slug))
	if err != nil {
		return 0, s.storeError("count view for", err)
	}
	return views, nil
}

// ImageKeys lists the stored image values of every record of this variant.
func (s *RecordService[T, P]) ImageKeys(ctx context.Context) ([]string, error) {
	if src, ok := any(s.store).(KeySource); ok {
		return src.ImageKeys(ctx)
	}
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(recs))
	for _, rec := range recs {
		if key := content.ImageKey(P(rec)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// prepare shapes in and replaces its image input with the canonical stored
// value, so signed URLs never end up persisted.
func (s *RecordService[T, P]) prepare(in P) error {
	if err := content.Prepare(in); err != nil {
		return err
	}
	if m, ok := any(in).(content.Illustrated); ok {
		media := m.MediaRef()
		media.ImageKey = nil
		if key := s.links.Resolver().ResolveToKey(content.Deref(media.Image)); key != "" {
			media.ImageKey = &key
		}
		media.Image = nil
	}
	return nil
}

func (s *RecordService[T, P]) present(ctx context.Context, rec P) {
	if m, ok := any(rec).(content.Illustrated); ok {
		media := m.MediaRef()
		media.Image = s.links.DisplayURL(ctx, content.Deref(media.ImageKey))
	}
}

func (s *RecordService[T, P]) ensureSlugFree(ctx context.Context, rec P, excludeID string) error {
	slug := content.Slug(rec)
	if slug == "" {
		return nil
	}
	idx, ok := any(s.store).(SlugIndex[T])
	if !ok {
		return nil
	}
	taken, err := idx.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return s.storeError("check slug for", err)
	}
	if taken {
		return apperr.Conflict(msgSlugTaken)
	}
	return nil
}

func (s *RecordService[T, P]) storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(s.entity + " not found")
	case errors.Is(err, repository.ErrSlugTaken):
		return apperr.Conflict(msgSlugTaken)
	case errors.Is(err, repository.ErrStale):
		return apperr.Conflict(msgStale)
	}
	s.log.Error().Err(err).Str("op", op).Msg("record store failed")
	return apperr.Unavailable(err, fmt.Sprintf("Failed to %s %s, try again later", op, s.entity))
}
