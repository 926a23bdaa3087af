package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailybread/models"
)

type PostgresSettingsRepo struct {
	DB *sql.DB
}

func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{DB: db}
}

func (r *PostgresSettingsRepo) GetSettings(ctx context.Context, userID int64) (*models.GivingSettings, error) {
	s := &models.GivingSettings{}
	var (
		brand, last4, token sql.NullString
		expMonth, expYear   sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, roundups_enabled, threshold_cents, multiplier, email_updates,
			monthly_summary, notify_before_donation, card_brand, card_last4,
			card_exp_month, card_exp_year, card_token, updated_at
		FROM giving_settings
		WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.RoundUpsEnabled, &s.ThresholdCents, &s.Multiplier,
		&s.EmailUpdates, &s.MonthlySummary, &s.NotifyBeforeDonation, &brand, &last4,
		&expMonth, &expYear, &token, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultGivingSettings(userID), nil
		}
		return nil, err
	}

	if token.Valid && token.String != "" {
		s.Card = &models.Card{
			Brand:    brand.String,
			Last4:    last4.String,
			ExpMonth: int(expMonth.Int64),
			ExpYear:  int(expYear.Int64),
			Token:    token.String,
		}
	}
	return s, nil
}

func (r *PostgresSettingsRepo) SaveSettings(ctx context.Context, s *models.GivingSettings) error {
	s.UpdatedAt = time.Now().UTC()

	var brand, last4, token *string
	var expMonth, expYear *int
	if s.Card != nil {
		brand, last4, token = &s.Card.Brand, &s.Card.Last4, &s.Card.Token
		expMonth, expYear = &s.Card.ExpMonth, &s.Card.ExpYear
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO giving_settings (user_id, roundups_enabled, threshold_cents, multiplier,
			email_updates, monthly_summary, notify_before_donation, card_brand, card_last4,
			card_exp_month, card_exp_year, card_token, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			roundups_enabled = EXCLUDED.roundups_enabled,
			threshold_cents = EXCLUDED.threshold_cents,
			multiplier = EXCLUDED.multiplier,
			email_updates = EXCLUDED.email_updates,
			monthly_summary = EXCLUDED.monthly_summary,
			notify_before_donation = EXCLUDED.notify_before_donation,
			card_brand = EXCLUDED.card_brand,
			card_last4 = EXCLUDED.card_last4,
			card_exp_month = EXCLUDED.card_exp_month,
			card_exp_year = EXCLUDED.card_exp_year,
			card_token = EXCLUDED.card_token,
			updated_at = EXCLUDED.updated_at
	`, s.UserID, s.RoundUpsEnabled, s.ThresholdCents, s.Multiplier, s.EmailUpdates,
		s.MonthlySummary, s.NotifyBeforeDonation, brand, last4, expMonth, expYear, token, s.UpdatedAt)
	return err
}
