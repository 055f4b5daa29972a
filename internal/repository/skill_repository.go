package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/ids"
	"portfolio/internal/models"
)

const skillColumns = `id, version, created_at, updated_at, name, category, level`

type SkillRepository struct {
	table
}

func NewSkillRepository(pool *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{table{pool: pool, name: "skills"}}
}

func scanSkill(row pgx.Row) (*models.Skill, error) {
	var s models.Skill
	if err := row.Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt, &s.Name, &s.Category, &s.Level); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SkillRepository) Insert(ctx context.Context, s *models.Skill) error {
	const query = `
		INSERT INTO skills (id, name, category, level, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW(), NOW())
		RETURNING version, created_at, updated_at
	`
	if s.ID == "" {
		s.ID = ids.New()
	}
	return r.pool.QueryRow(ctx, query, s.ID, s.Name, s.Category, s.Level).
		Scan(&s.Version, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SkillRepository) Update(ctx context.Context, s *models.Skill) error {
	const query = `
		UPDATE skills SET name = $3, category = $4, level = $5, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, s.ID, s.Version, s.Name, s.Category, s.Level).
		Scan(&s.Version, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrStale(ctx, s.ID)
	}
	return err
}

func (r *SkillRepository) Get(ctx context.Context, id string) (*models.Skill, error) {
	return scanSkill(r.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
}

func (r *SkillRepository) List(ctx context.Context) ([]*models.Skill, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+skillColumns+` FROM skills ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSkill)
}
