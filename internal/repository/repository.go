package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrStale     = errors.New("record version changed")
	ErrSlugTaken = errors.New("slug already taken")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// writeError maps driver errors of an insert or update onto the package
// sentinels. The unique index on slug is the final word on collisions.
func writeError(err error) error {
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

// table holds the statements every record table shares.
type table struct {
	pool *pgxpool.Pool
	name string
}

func (t table) Delete(ctx context.Context, id string) error {
	cmd, err := t.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t table) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.name)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// missingOrStale explains why a versioned update matched no row.
func (t table) missingOrStale(ctx context.Context, id string) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, t.name)
	if err := t.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}

func (t table) slugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE slug = $1 AND id <> $2)`, t.name)
	var taken bool
	if err := t.pool.QueryRow(ctx, query, slug, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (t table) incrementViews(ctx context.Context, slug string) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET views = views + 1 WHERE slug = $1 RETURNING views`, t.name)
	var views int64
	if err := t.pool.QueryRow(ctx, query, slug).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return views, nil
}

func (t table) imageKeys(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT image_path FROM %s WHERE image_path IS NOT NULL AND image_path <> ''`, t.name)
	rows, err := t.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	out := make([]*T, 0)
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
