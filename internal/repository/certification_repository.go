package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/ids"
	"portfolio/internal/models"
)

const certificationColumns = `id, version, created_at, updated_at, name, organization, issue_date,
	expiry_date, credential_id, verification_url, category, status, cert_group, image_path`

type CertificationRepository struct {
	table
}

func NewCertificationRepository(pool *pgxpool.Pool) *CertificationRepository {
	return &CertificationRepository{table{pool: pool, name: "certifications"}}
}

func scanCertification(row pgx.Row) (*models.Certification, error) {
	var c models.Certification
	if err := row.Scan(
		&c.ID,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.Name,
		&c.Organization,
		&c.IssueDate,
		&c.ExpiryDate,
		&c.CredentialID,
		&c.VerificationURL,
		&c.Category,
		&c.Status,
		&c.Group,
		&c.ImageKey,
	); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CertificationRepository) Insert(ctx context.Context, c *models.Certification) error {
	const query = `
		INSERT INTO certifications (
			id, name, organization, issue_date, expiry_date, credential_id, verification_url,
			category, status, cert_group, image_path, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, NOW(), NOW()
		)
		RETURNING version, created_at, updated_at
	`
	if c.ID == "" {
		c.ID = ids.New()
	}
	err := r.pool.QueryRow(ctx, query,
		c.ID,
		c.Name,
		c.Organization,
		c.IssueDate,
		c.ExpiryDate,
		c.CredentialID,
		c.VerificationURL,
		c.Category,
		c.Status,
		c.Group,
		c.ImageKey,
	).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	return writeError(err)
}

func (r *CertificationRepository) Update(ctx context.Context, c *models.Certification) error {
	const query = `
		UPDATE certifications SET
			name = $3, organization = $4, issue_date = $5, expiry_date = $6, credential_id = $7,
			verification_url = $8, category = $9, status = $10, cert_group = $11, image_path = $12,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		c.ID,
		c.Version,
		c.Name,
		c.Organization,
		c.IssueDate,
		c.ExpiryDate,
		c.CredentialID,
		c.VerificationURL,
		c.Category,
		c.Status,
		c.Group,
		c.ImageKey,
	).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrStale(ctx, c.ID)
	}
	return writeError(err)
}

func (r *CertificationRepository) Get(ctx context.Context, id string) (*models.Certification, error) {
	return scanCertification(r.pool.QueryRow(ctx, `SELECT `+certificationColumns+` FROM certifications WHERE id = $1`, id))
}

func (r *CertificationRepository) List(ctx context.Context) ([]*models.Certification, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+certificationColumns+` FROM certifications ORDER BY issue_date DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCertification)
}

func (r *CertificationRepository) ImageKeys(ctx context.Context) ([]string, error) {
	return r.imageKeys(ctx)
}
