package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailybread/models"
)

type PostgresChurchRepo struct {
	DB *sql.DB
}

func NewPostgresChurchRepo(db *sql.DB) *PostgresChurchRepo {
	return &PostgresChurchRepo{DB: db}
}

const churchColumns = `id, name, slug, city, state, country, website, contact_email, logo_url,
	(SELECT COUNT(*) FROM profiles p WHERE p.church_id = churches.id) AS member_count,
	status, rejection_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChurch(row rowScanner) (*models.Church, error) {
	c := &models.Church{}
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.City, &c.State, &c.Country, &c.Website,
		&c.ContactEmail, &c.LogoURL, &c.MemberCount, &c.Status, &c.RejectionReason,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// execer lets insertChurch run inside or outside a transaction.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertChurch(ctx context.Context, q execer, c *models.Church) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Country == "" {
		c.Country = "US"
	}
	if c.Status == "" {
		c.Status = models.ChurchPending
	}
	err := q.QueryRowContext(ctx, `
		INSERT INTO churches (name, slug, city, state, country, website, contact_email, logo_url,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, c.Name, c.Slug, c.City, c.State, c.Country, c.Website, c.ContactEmail, c.LogoURL,
		c.Status, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	return mapPQError(err)
}

func (r *PostgresChurchRepo) CreateChurch(ctx context.Context, c *models.Church) error {
	return insertChurch(ctx, r.DB, c)
}

func (r *PostgresChurchRepo) GetChurch(ctx context.Context, id int64) (*models.Church, error) {
	return scanChurch(r.DB.QueryRowContext(ctx, `SELECT `+churchColumns+` FROM churches WHERE id = $1`, id))
}

func (r *PostgresChurchRepo) GetChurchBySlug(ctx context.Context, slug string) (*models.Church, error) {
	return scanChurch(r.DB.QueryRowContext(ctx, `SELECT `+churchColumns+` FROM churches WHERE slug = $1`, slug))
}

func (r *PostgresChurchRepo) ListChurches(ctx context.Context, f models.ChurchFilter) ([]*models.Church, error) {
	query := `SELECT ` + churchColumns + ` FROM churches`
	var where []string
	var args []any
	argIdx := 1

	if f.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, f.Status)
		argIdx++
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(q)+"%")
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY lower(name) ASC, id ASC"
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Church
	for rows.Next() {
		c, err := scanChurch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// escapeLike keeps user input from acting as LIKE wildcards.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresChurchRepo) UpdateChurch(ctx context.Context, c *models.Church) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE churches
		SET city = $1, state = $2, website = $3, contact_email = $4, logo_url = $5, updated_at = $6
		WHERE id = $7
	`, c.City, c.State, c.Website, c.ContactEmail, c.LogoURL, c.UpdatedAt, c.ID)
	if err != nil {
		return mapPQError(err)
	}
	return expectOne(res)
}

func (r *PostgresChurchRepo) TransitionStatus(ctx context.Context, id int64, from, to models.ChurchStatus, reason *string) (*models.Church, error) {
	c, err := scanChurch(r.DB.QueryRowContext(ctx, `
		UPDATE churches
		SET status = $1, rejection_reason = $2, updated_at = now()
		WHERE id = $3 AND status = $4
		RETURNING `+churchColumns, to, reason, id, from))
	if errors.Is(err, ErrNotFound) {
		// Distinguish a missing church from one in another status.
		var exists bool
		if qerr := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM churches WHERE id = $1)`, id).Scan(&exists); qerr != nil {
			return nil, qerr
		}
		if exists {
			return nil, ErrConflict
		}
		return nil, ErrNotFound
	}
	return c, err
}

func (r *PostgresChurchRepo) CountByStatus(ctx context.Context) (map[models.ChurchStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM churches GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.ChurchStatus]int{
		models.ChurchPending:  0,
		models.ChurchActive:   0,
		models.ChurchRejected: 0,
	}
	for rows.Next() {
		var status models.ChurchStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PostgresChurchRepo) CountMembers(ctx context.Context, churchID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE church_id = $1`, churchID).Scan(&n)
	return n, err
}
