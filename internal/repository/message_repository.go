package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/ids"
	"portfolio/internal/models"
)

const messageColumns = `id, version, created_at, updated_at, name, email, subject, message, status, received_at`

type MessageRepository struct {
	table
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{table{pool: pool, name: "messages"}}
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(
		&m.ID,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.Name,
		&m.Email,
		&m.Subject,
		&m.Message,
		&m.Status,
		&m.ReceivedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MessageRepository) Insert(ctx context.Context, m *models.Message) error {
	const query = `
		INSERT INTO messages (
			id, name, email, subject, message, status, received_at, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, 1, NOW(), NOW()
		)
		RETURNING version, created_at, updated_at
	`
	if m.ID == "" {
		m.ID = ids.New()
	}
	return r.pool.QueryRow(ctx, query,
		m.ID,
		m.Name,
		m.Email,
		m.Subject,
		m.Message,
		m.Status,
		m.ReceivedAt,
	).Scan(&m.Version, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MessageRepository) Update(ctx context.Context, m *models.Message) error {
	const query = `
		UPDATE messages SET
			name = $3, email = $4, subject = $5, message = $6, status = $7, received_at = $8,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		m.ID,
		m.Version,
		m.Name,
		m.Email,
		m.Subject,
		m.Message,
		m.Status,
		m.ReceivedAt,
	).Scan(&m.Version, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrStale(ctx, m.ID)
	}
	return err
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (r *MessageRepository) List(ctx context.Context) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY received_at DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMessage)
}
