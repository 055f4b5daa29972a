package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/models"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrOperatorExists   = errors.New("operator already exists")
)

const operatorColumns = `id, email, password_hash, display_name, role, status, created_at, updated_at`

type OperatorRepository struct {
	pool *pgxpool.Pool
}

func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

func scanOperator(row pgx.Row) (models.Operator, error) {
	var op models.Operator
	if err := row.Scan(
		&op.ID,
		&op.Email,
		&op.PasswordHash,
		&op.DisplayName,
		&op.Role,
		&op.Status,
		&op.CreatedAt,
		&op.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Operator{}, ErrOperatorNotFound
		}
		return models.Operator{}, err
	}
	return op, nil
}

func (r *OperatorRepository) Create(ctx context.Context, op models.Operator) error {
	const query = `
		INSERT INTO operators (
			id, email, password_hash, display_name, role, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		op.ID,
		op.Email,
		op.PasswordHash,
		op.DisplayName,
		op.Role,
		op.Status,
	)
	if isUniqueViolation(err) {
		return ErrOperatorExists
	}
	return err
}

func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (models.Operator, error) {
	return scanOperator(r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE email = $1`, email))
}

func (r *OperatorRepository) GetByID(ctx context.Context, id string) (models.Operator, error) {
	return scanOperator(r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id))
}

func (r *OperatorRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM operators`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *OperatorRepository) UpdateStatus(ctx context.Context, id string, status models.OperatorStatus) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE operators SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOperatorNotFound
	}
	return nil
}
