package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailybread/models"
)

type PostgresUserRepo struct {
	DB *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{DB: db}
}

// ------------------------ Helper Functions ------------------------

func insertUser(ctx context.Context, tx *sql.Tx, u *models.AppUser) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO app_user (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, u.Email, u.Password, u.CreatedAt).Scan(&u.ID)
	return mapPQError(err)
}

func insertProfile(ctx context.Context, tx *sql.Tx, p *models.Profile) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, phone, church_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.UserID, p.FirstName, p.LastName, p.Phone, p.ChurchID, p.CreatedAt, p.UpdatedAt)
	return err
}

func insertDefaultSettings(ctx context.Context, tx *sql.Tx, userID int64) error {
	d := models.DefaultGivingSettings(userID)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO giving_settings (user_id, roundups_enabled, threshold_cents, multiplier,
			email_updates, monthly_summary, notify_before_donation, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id) DO NOTHING
	`, d.UserID, d.RoundUpsEnabled, d.ThresholdCents, d.Multiplier,
		d.EmailUpdates, d.MonthlySummary, d.NotifyBeforeDonation)
	return err
}

// ------------------------ Accounts ------------------------

func (r *PostgresUserRepo) CreateUser(ctx context.Context, user *models.AppUser, profile *models.Profile) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	profile.UserID = user.ID
	if err := insertProfile(ctx, tx, profile); err != nil {
		return err
	}
	if err := insertDefaultSettings(ctx, tx, user.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresUserRepo) CreateChurchAdmin(ctx context.Context, user *models.AppUser, profile *models.Profile, church *models.Church) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	if err := insertChurch(ctx, tx, church); err != nil {
		return err
	}

	profile.UserID = user.ID
	profile.ChurchID = &church.ID
	if err := insertProfile(ctx, tx, profile); err != nil {
		return err
	}
	if err := insertDefaultSettings(ctx, tx, user.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role, church_id, created_at)
		VALUES ($1, $2, $3, now())
	`, user.ID, models.RoleChurchAdmin, church.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetUserByEmail returns ErrNotFound when no account uses email.
func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, id int64) (*models.AppUser, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepo) getUser(ctx context.Context, where string, arg any) (*models.AppUser, error) {
	user := &models.AppUser{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM app_user `+where, arg).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ------------------------ Profiles ------------------------

func (r *PostgresUserRepo) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, phone, church_id, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.ChurchID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE profiles
		SET first_name = $1, last_name = $2, phone = $3, updated_at = $4
		WHERE user_id = $5
	`, p.FirstName, p.LastName, p.Phone, p.UpdatedAt, p.UserID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PostgresUserRepo) SetProfileChurch(ctx context.Context, userID int64, churchID *int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE profiles SET church_id = $1, updated_at = now() WHERE user_id = $2
	`, churchID, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
