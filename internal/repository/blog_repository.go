package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/ids"
	"portfolio/internal/models"
)

const blogColumns = `id, version, created_at, updated_at, slug, title, excerpt, category, tags,
	date, read_time, views, author, table_of_contents, content, image_path`

type BlogRepository struct {
	table
}

func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{table{pool: pool, name: "blog_posts"}}
}

func scanBlogPost(row pgx.Row) (*models.BlogPost, error) {
	var b models.BlogPost
	if err := row.Scan(
		&b.ID,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Slug,
		&b.Title,
		&b.Excerpt,
		&b.Category,
		&b.Tags,
		&b.Date,
		&b.ReadTime,
		&b.Views,
		&b.Author,
		&b.TableOfContents,
		&b.Content,
		&b.ImageKey,
	); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BlogRepository) Insert(ctx context.Context, b *models.BlogPost) error {
	const query = `
		INSERT INTO blog_posts (
			id, slug, title, excerpt, category, tags, date, read_time, views, author,
			table_of_contents, content, image_path, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, NOW(), NOW()
		)
		RETURNING version, created_at, updated_at
	`
	if b.ID == "" {
		b.ID = ids.New()
	}
	err := r.pool.QueryRow(ctx, query,
		b.ID,
		b.Slug,
		b.Title,
		b.Excerpt,
		b.Category,
		b.Tags,
		b.Date,
		b.ReadTime,
		b.Views,
		b.Author,
		b.TableOfContents,
		b.Content,
		b.ImageKey,
	).Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt)
	return writeError(err)
}

func (r *BlogRepository) Update(ctx context.Context, b *models.BlogPost) error {
	const query = `
		UPDATE blog_posts SET
			slug = $3, title = $4, excerpt = $5, category = $6, tags = $7, date = $8,
			read_time = $9, author = $10, table_of_contents = $11, content = $12, image_path = $13,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, created_at, updated_at, views
	`
	err := r.pool.QueryRow(ctx, query,
		b.ID,
		b.Version,
		b.Slug,
		b.Title,
		b.Excerpt,
		b.Category,
		b.Tags,
		b.Date,
		b.ReadTime,
		b.Author,
		b.TableOfContents,
		b.Content,
		b.ImageKey,
	).Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt, &b.Views)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrStale(ctx, b.ID)
	}
	return writeError(err)
}

func (r *BlogRepository) Get(ctx context.Context, id string) (*models.BlogPost, error) {
	return scanBlogPost(r.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, id))
}

func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return scanBlogPost(r.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE slug = $1`, slug))
}

func (r *BlogRepository) List(ctx context.Context) ([]*models.BlogPost, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+blogColumns+` FROM blog_posts ORDER BY date DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBlogPost)
}

func (r *BlogRepository) SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	return r.slugTaken(ctx, slug, excludeID)
}

func (r *BlogRepository) IncrementViews(ctx context.Context, slug string) (int64, error) {
	return r.incrementViews(ctx, slug)
}

func (r *BlogRepository) ImageKeys(ctx context.Context) ([]string, error) {
	return r.imageKeys(ctx)
}
