package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"dailybread/models"

	"github.com/lib/pq"
)

type PostgresGivingRepo struct {
	DB *sql.DB
}

func NewPostgresGivingRepo(db *sql.DB) *PostgresGivingRepo {
	return &PostgresGivingRepo{DB: db}
}

// ------------------------ Round-ups ------------------------

func (r *PostgresGivingRepo) AddRoundUp(ctx context.Context, ru *models.RoundUp) error {
	if ru.CreatedAt.IsZero() {
		ru.CreatedAt = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO roundups (user_id, merchant, purchase_cents, roundup_cents, multiplier,
			applied_cents, status, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, ru.UserID, ru.Merchant, ru.PurchaseCents, ru.RoundUpCents, ru.Multiplier,
		ru.AppliedCents, ru.Status, ru.OccurredAt, ru.CreatedAt).Scan(&ru.ID)
}

func (r *PostgresGivingRepo) ListRoundUps(ctx context.Context, userID int64, limit int) ([]*models.RoundUp, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, merchant, purchase_cents, roundup_cents, multiplier, applied_cents,
			status, donation_id, occurred_at, created_at
		FROM roundups
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.RoundUp
	for rows.Next() {
		ru := &models.RoundUp{}
		if err := rows.Scan(&ru.ID, &ru.UserID, &ru.Merchant, &ru.PurchaseCents, &ru.RoundUpCents,
			&ru.Multiplier, &ru.AppliedCents, &ru.Status, &ru.DonationID, &ru.OccurredAt, &ru.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, ru)
	}
	return list, rows.Err()
}

func (r *PostgresGivingRepo) PendingBalance(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(applied_cents), 0) FROM roundups WHERE user_id = $1 AND status = 'pending'
	`, userID).Scan(&total)
	return total, err
}

func (r *PostgresGivingRepo) SweepPending(ctx context.Context, userID, churchID, minCents int64, fee FeeFunc) (*models.Donation, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the pending rows so a concurrent purchase cannot sweep them twice.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, applied_cents FROM roundups
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY id
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	var gross int64
	for rows.Next() {
		var id, applied int64
		if err := rows.Scan(&id, &applied); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
		gross += applied
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 || gross < minCents {
		return nil, nil
	}

	feeCents := fee(gross)
	net := gross - feeCents
	if net < 0 {
		net = 0
	}
	d := &models.Donation{
		UserID:       userID,
		ChurchID:     churchID,
		GrossCents:   gross,
		FeeCents:     feeCents,
		NetCents:     net,
		RoundUpCount: len(ids),
		Status:       models.DonationPending,
		CreatedAt:    time.Now().UTC(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO donations (user_id, church_id, gross_cents, fee_cents, net_cents, roundup_count,
			status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, d.UserID, d.ChurchID, d.GrossCents, d.FeeCents, d.NetCents, d.RoundUpCount,
		d.Status, d.CreatedAt).Scan(&d.ID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE roundups SET status = 'swept', donation_id = $1
		WHERE id = ANY($2)
	`, d.ID, pq.Array(ids)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// ------------------------ Donations ------------------------

const donationColumns = `id, user_id, church_id, gross_cents, fee_cents, net_cents, roundup_count,
	status, attempts, charge_ref, failure_reason, created_at, settled_at`

func scanDonation(row rowScanner) (*models.Donation, error) {
	d := &models.Donation{}
	err := row.Scan(&d.ID, &d.UserID, &d.ChurchID, &d.GrossCents, &d.FeeCents, &d.NetCents,
		&d.RoundUpCount, &d.Status, &d.Attempts, &d.ChargeRef, &d.FailureReason,
		&d.CreatedAt, &d.SettledAt)
	return d, err
}

// donationWhere builds the WHERE clause shared by listing and totals.
func donationWhere(f models.DonationFilter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.ChurchID != 0 {
		add("church_id = $%d", f.ChurchID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at < $%d", f.Until)
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *PostgresGivingRepo) ListDonations(ctx context.Context, f models.DonationFilter) ([]*models.Donation, error) {
	where, args := donationWhere(f)
	query := `SELECT ` + donationColumns + ` FROM donations` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.queryDonations(ctx, query, args...)
}

func (r *PostgresGivingRepo) queryDonations(ctx context.Context, query string, args ...any) ([]*models.Donation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (r *PostgresGivingRepo) DonationTotals(ctx context.Context, f models.DonationFilter) (models.DonationTotals, error) {
	where, args := donationWhere(f)
	var t models.DonationTotals
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(gross_cents), 0), COALESCE(SUM(net_cents), 0), COUNT(*), COUNT(DISTINCT user_id)
		FROM donations`+where, args...).Scan(&t.GrossCents, &t.NetCents, &t.Count, &t.Donors)
	return t, err
}

func (r *PostgresGivingRepo) TopGivers(ctx context.Context, churchID int64, since time.Time, limit int) ([]models.Giver, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.user_id, p.first_name, p.last_name, COUNT(*), SUM(d.gross_cents) AS total
		FROM donations d
		JOIN profiles p ON p.user_id = d.user_id
		WHERE d.church_id = $1 AND d.status = 'completed' AND d.created_at >= $2
		GROUP BY d.user_id, p.first_name, p.last_name
		ORDER BY total DESC, d.user_id
		LIMIT $3
	`, churchID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var givers []models.Giver
	for rows.Next() {
		var g models.Giver
		var p models.Profile
		if err := rows.Scan(&g.UserID, &p.FirstName, &p.LastName, &g.Donations, &g.TotalCents); err != nil {
			return nil, err
		}
		g.Name = p.DisplayName()
		givers = append(givers, g)
	}
	return givers, rows.Err()
}

func (r *PostgresGivingRepo) ClaimPendingDonations(ctx context.Context, limit int, lease time.Duration) ([]*models.Donation, error) {
	list, err := r.queryDonations(ctx, `
		UPDATE donations
		SET claimed_until = now() + make_interval(secs => $2)
		WHERE id IN (
			SELECT id FROM donations
			WHERE status = 'pending' AND (claimed_until IS NULL OR claimed_until < now())
			ORDER BY created_at, id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+donationColumns, limit, lease.Seconds())
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *PostgresGivingRepo) UpdateDonation(ctx context.Context, d *models.Donation) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE donations
		SET status = $1, attempts = $2, charge_ref = $3, failure_reason = $4, settled_at = $5, claimed_until = NULL
		WHERE id = $6
	`, d.Status, d.Attempts, d.ChargeRef, d.FailureReason, d.SettledAt, d.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
