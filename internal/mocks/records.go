package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portfolio/internal/content"
	"portfolio/internal/repository"
)

// MemoryStore is an in-memory record store that behaves like the pgx
// repositories: it owns ids and versions, enforces unique slugs and reports
// stale writes.
type MemoryStore[T any, P content.Entity[T]] struct {
	mu    sync.Mutex
	rows  map[string]T
	order []string
	seq   int

	// Err fails every call when set.
	Err error
	// BlindSlugCheck makes SlugTaken always answer false, as if another
	// writer took the slug between the check and the write.
	BlindSlugCheck bool

	Inserts int
	Updates int
}

func NewMemoryStore[T any, P content.Entity[T]]() *MemoryStore[T, P] {
	return &MemoryStore[T, P]{rows: make(map[string]T)}
}

func (m *MemoryStore[T, P]) Insert(ctx context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.slugInUse(content.Slug(P(rec)), "") {
		return repository.ErrSlugTaken
	}

	m.seq++
	meta := P(rec).Metadata()
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("rec-%d", m.seq)
	}
	now := time.Now().UTC()
	meta.Version = 1
	meta.CreatedAt = now
	meta.UpdatedAt = now

	m.rows[meta.ID] = *rec
	m.order = append(m.order, meta.ID)
	m.Inserts++
	return nil
}

func (m *MemoryStore[T, P]) Update(ctx context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	meta := P(rec).Metadata()
	stored, ok := m.rows[meta.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current := P(&stored)
	if current.Metadata().Version != meta.Version {
		return repository.ErrStale
	}
	if m.slugInUse(content.Slug(P(rec)), meta.ID) {
		return repository.ErrSlugTaken
	}
	if c, ok := any(P(rec)).(content.Counted); ok {
		*c.ViewCount() = *any(current).(content.Counted).ViewCount()
	}

	meta.Version++
	meta.CreatedAt = current.Metadata().CreatedAt
	meta.UpdatedAt = time.Now().UTC()
	m.rows[meta.ID] = *rec
	m.Updates++
	return nil
}

func (m *MemoryStore[T, P]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore[T, P]) Get(ctx context.Context, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore[T, P]) List(ctx context.Context) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*T, 0, len(m.order))
	for _, id := range m.order {
		rec := m.rows[id]
		out = append(out, &rec)
	}
	return out, nil
}

func (m *MemoryStore[T, P]) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.rows), nil
}

func (m *MemoryStore[T, P]) SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.BlindSlugCheck {
		return false, nil
	}
	return m.slugInUse(slug, excludeID), nil
}

func (m *MemoryStore[T, P]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, id := range m.order {
		rec := m.rows[id]
		if slug != "" && content.Slug(P(&rec)) == slug {
			return &rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemoryStore[T, P]) IncrementViews(ctx context.Context, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	for id, rec := range m.rows {
		if slug == "" || content.Slug(P(&rec)) != slug {
			continue
		}
		c, ok := any(P(&rec)).(content.Counted)
		if !ok {
			break
		}
		*c.ViewCount() = *c.ViewCount() + 1
		m.rows[id] = rec
		return *c.ViewCount(), nil
	}
	return 0, repository.ErrNotFound
}

// Seed stores rec as is, bypassing every check.
func (m *MemoryStore[T, P]) Seed(rec P) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta := rec.Metadata()
	if meta.Version == 0 {
		meta.Version = 1
	}
	if _, ok := m.rows[meta.ID]; !ok {
		m.order = append(m.order, meta.ID)
	}
	m.rows[meta.ID] = *rec
}

func (m *MemoryStore[T, P]) slugInUse(slug string, excludeID string) bool {
	if slug == "" {
		return false
	}
	for id, rec := range m.rows {
		if id != excludeID && content.Slug(P(&rec)) == slug {
			return true
		}
	}
	return false
}
