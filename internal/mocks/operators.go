package mocks

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"portfolio/internal/models"
	"portfolio/internal/repository"
)

type MemoryOperators struct {
	mu   sync.Mutex
	byID map[string]models.Operator
}

func NewMemoryOperators() *MemoryOperators {
	return &MemoryOperators{byID: make(map[string]models.Operator)}
}

func (m *MemoryOperators) Create(ctx context.Context, op models.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == op.Email {
			return repository.ErrOperatorExists
		}
	}
	now := time.Now()
	op.CreatedAt, op.UpdatedAt = now, now
	m.byID[op.ID] = op
	return nil
}

func (m *MemoryOperators) FindByEmail(ctx context.Context, email string) (models.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.byID {
		if op.Email == email {
			return op, nil
		}
	}
	return models.Operator{}, repository.ErrOperatorNotFound
}

func (m *MemoryOperators) GetByID(ctx context.Context, id string) (models.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.byID[id]
	if !ok {
		return models.Operator{}, repository.ErrOperatorNotFound
	}
	return op, nil
}

func (m *MemoryOperators) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

type MemorySessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{byID: make(map[string]models.Session)}
}

func (m *MemorySessions) Save(ctx context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.byID {
		if existing.OperatorID == session.OperatorID && existing.DeviceID == session.DeviceID {
			session.CreatedAt = existing.CreatedAt
			delete(m.byID, id)
		}
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.LastSeenAt = now
	m.byID[session.ID] = session
	return nil
}

func (m *MemorySessions) GetByID(ctx context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (m *MemorySessions) FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.byID {
		if bytes.Equal(session.RefreshTokenHash, refreshHash) {
			return session, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (m *MemorySessions) CountByOperator(ctx context.Context, operatorID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, session := range m.byID {
		if session.OperatorID == operatorID {
			n++
		}
	}
	return n, nil
}

func (m *MemorySessions) DeleteOldest(ctx context.Context, operatorID string, keepLatest int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []models.Session
	for _, session := range m.byID {
		if session.OperatorID == operatorID {
			owned = append(owned, session)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].LastSeenAt.After(owned[j].LastSeenAt) })
	for i := keepLatest; i < len(owned); i++ {
		delete(m.byID, owned[i].ID)
	}
	return nil
}

func (m *MemorySessions) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *MemorySessions) Touch(ctx context.Context, sessionID string, ip string, userAgent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.byID[sessionID]; ok {
		session.LastSeenAt = time.Now()
		m.byID[sessionID] = session
	}
	return nil
}

func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
