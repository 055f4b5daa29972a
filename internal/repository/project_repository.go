package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/ids"
	"portfolio/internal/models"
)

const projectColumns = `id, version, created_at, updated_at, slug, title, description, category,
	technologies, year, link, image_path, views`

type ProjectRepository struct {
	table
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{table{pool: pool, name: "projects"}}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(
		&p.ID,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.Technologies,
		&p.Year,
		&p.Link,
		&p.ImageKey,
		&p.Views,
	); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProjectRepository) Insert(ctx context.Context, p *models.Project) error {
	const query = `
		INSERT INTO projects (
			id, slug, title, description, category, technologies, year, link, image_path, views,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, NOW(), NOW()
		)
		RETURNING version, created_at, updated_at
	`
	if p.ID == "" {
		p.ID = ids.New()
	}
	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.Slug,
		p.Title,
		p.Description,
		p.Category,
		p.Technologies,
		p.Year,
		p.Link,
		p.ImageKey,
		p.Views,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	return writeError(err)
}

func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	const query = `
		UPDATE projects SET
			slug = $3, title = $4, description = $5, category = $6, technologies = $7,
			year = $8, link = $9, image_path = $10,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, created_at, updated_at, views
	`
	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.Version,
		p.Slug,
		p.Title,
		p.Description,
		p.Category,
		p.Technologies,
		p.Year,
		p.Link,
		p.ImageKey,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt, &p.Views)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrStale(ctx, p.ID)
	}
	return writeError(err)
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = $1`, slug))
}

func (r *ProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY year DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProject)
}

func (r *ProjectRepository) SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	return r.slugTaken(ctx, slug, excludeID)
}

func (r *ProjectRepository) IncrementViews(ctx context.Context, slug string) (int64, error) {
	return r.incrementViews(ctx, slug)
}

func (r *ProjectRepository) ImageKeys(ctx context.Context) ([]string, error) {
	return r.imageKeys(ctx)
}
