package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dailybread/models"
	"dailybread/repository"
	"dailybread/utils"

	"go.uber.org/zap"
)

var (
	Thresholds  = []int64{700, 1000, 2500}
	Multipliers = []int{1, 2, 3}
)

// SettingsInput is a partial update; nil fields keep their stored value.
type SettingsInput struct {
	RoundUpsEnabled      *bool  `json:"roundups_enabled"`
	ThresholdCents       *int64 `json:"threshold_cents"`
	Multiplier           *int   `json:"multiplier"`
	EmailUpdates         *bool  `json:"email_updates"`
	MonthlySummary       *bool  `json:"monthly_summary"`
	NotifyBeforeDonation *bool  `json:"notify_before_donation"`
}

type CardInput struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	Token    string `json:"token"`
}

type PurchaseInput struct {
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Merchant    string    `json:"merchant"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type PurchaseResult struct {
	RoundUp      *models.RoundUp  `json:"roundup"`
	BalanceCents int64            `json:"balance_cents"`
	Donation     *models.Donation `json:"donation,omitempty"`
}

type GivingService struct {
	Users    repository.UserRepository
	Churches repository.ChurchRepository
	Settings repository.SettingsRepository
	Giving   repository.GivingRepository
	Logger   *zap.Logger

	now func() time.Time
}

func NewGivingService(users repository.UserRepository, churches repository.ChurchRepository,
	settings repository.SettingsRepository, giving repository.GivingRepository, logger *zap.Logger) *GivingService {
	return &GivingService{
		Users:    users,
		Churches: churches,
		Settings: settings,
		Giving:   giving,
		Logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func redactCard(s *models.GivingSettings) *models.GivingSettings {
	if s.Card != nil {
		card := *s.Card
		card.Token = ""
		s.Card = &card
	}
	return s
}

// GetSettings returns the user's settings without the card token.
func (s *GivingService) GetSettings(ctx context.Context, userID int64) (*models.GivingSettings, error) {
	settings, err := s.Settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return redactCard(settings), nil
}

func (s *GivingService) UpdateSettings(ctx context.Context, userID int64, in SettingsInput) (*models.GivingSettings, error) {
	if in.ThresholdCents != nil && !slices.Contains(Thresholds, *in.ThresholdCents) {
		return nil, invalid("threshold_cents", "Threshold must be $7, $10 or $25")
	}
	if in.Multiplier != nil && !slices.Contains(Multipliers, *in.Multiplier) {
		return nil, invalid("multiplier", "Multiplier must be 1x, 2x or 3x")
	}

	settings, err := s.Settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.RoundUpsEnabled != nil {
		settings.RoundUpsEnabled = *in.RoundUpsEnabled
	}
	if in.ThresholdCents != nil {
		settings.ThresholdCents = *in.ThresholdCents
	}
	if in.Multiplier != nil {
		settings.Multiplier = *in.Multiplier
	}
	if in.EmailUpdates != nil {
		settings.EmailUpdates = *in.EmailUpdates
	}
	if in.MonthlySummary != nil {
		settings.MonthlySummary = *in.MonthlySummary
	}
	if in.NotifyBeforeDonation != nil {
		settings.NotifyBeforeDonation = *in.NotifyBeforeDonation
	}
	if err := s.Settings.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return redactCard(settings), nil
}

func (s *GivingService) SaveCard(ctx context.Context, userID int64, in CardInput) (*models.GivingSettings, error) {
	in.Brand = strings.TrimSpace(in.Brand)
	in.Token = strings.TrimSpace(in.Token)
	if len(in.Last4) != 4 || strings.Trim(in.Last4, "0123456789") != "" {
		return nil, invalid("last4", "Card number must end in four digits")
	}
	if in.ExpMonth < 1 || in.ExpMonth > 12 {
		return nil, invalid("exp_month", "Expiry month must be between 1 and 12")
	}
	now := s.now()
	if in.ExpYear < now.Year() || (in.ExpYear == now.Year() && in.ExpMonth < int(now.Month())) {
		return nil, invalid("exp_year", "Card has expired")
	}
	if in.Token == "" {
		return nil, invalid("token", "Card token is required")
	}
	if in.Brand == "" {
		in.Brand = "card"
	}

	settings, err := s.Settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings.Card = &models.Card{
		Brand:    in.Brand,
		Last4:    in.Last4,
		ExpMonth: in.ExpMonth,
		ExpYear:  in.ExpYear,
		Token:    in.Token,
	}
	if err := s.Settings.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save card: %w", err)
	}
	return redactCard(settings), nil
}

func (s *GivingService) RemoveCard(ctx context.Context, userID int64) (*models.GivingSettings, error) {
	settings, err := s.Settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings.Card = nil
	if err := s.Settings.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("remove card: %w", err)
	}
	return settings, nil
}

// RecordPurchase stores the round-up of one card purchase and sweeps the
// balance into a donation once it reaches the user's threshold.
func (s *GivingService) RecordPurchase(ctx context.Context, userID int64, in PurchaseInput) (*PurchaseResult, error) {
	amount := in.AmountCents
	if amount == 0 && in.Amount != "" {
		parsed, err := utils.ParseDollars(in.Amount)
		if err != nil {
			return nil, invalid("amount", "Please enter a valid amount")
		}
		amount = parsed
	}
	roundUp, err := utils.RoundUpCents(amount)
	if err != nil {
		return nil, invalid("amount", "Amount must be greater than zero")
	}
	merchant := strings.TrimSpace(in.Merchant)
	if err := checkLength("merchant", "Merchant", merchant, 1, 100); err != nil {
		return nil, err
	}
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}

	settings, err := s.Settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	ru := &models.RoundUp{
		UserID:        userID,
		Merchant:      merchant,
		PurchaseCents: amount,
		RoundUpCents:  roundUp,
		Multiplier:    settings.Multiplier,
		OccurredAt:    occurred.UTC(),
		Status:        models.RoundUpPending,
	}
	switch {
	case !settings.RoundUpsEnabled:
		ru.Status = models.RoundUpSkipped
	case roundUp == 0:
		ru.Status = models.RoundUpSkipped
	default:
		ru.AppliedCents = roundUp * int64(settings.Multiplier)
	}
	if err := s.Giving.AddRoundUp(ctx, ru); err != nil {
		return nil, fmt.Errorf("record round-up: %w", err)
	}

	result := &PurchaseResult{RoundUp: ru}
	if ru.Status == models.RoundUpPending {
		d, err := s.sweep(ctx, userID, settings.ThresholdCents)
		if err != nil {
			return nil, err
		}
		result.Donation = d
	}
	result.BalanceCents, err = s.Giving.PendingBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// sweep creates a donation when the user gives to an active church and the
// pending balance has reached threshold.
func (s *GivingService) sweep(ctx context.Context, userID, threshold int64) (*models.Donation, error) {
	profile, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.ChurchID == nil {
		return nil, nil
	}
	church, err := s.Churches.GetChurch(ctx, *profile.ChurchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if church.Status != models.ChurchActive {
		return nil, nil
	}
	d, err := s.Giving.SweepPending(ctx, userID, church.ID, threshold, utils.ProcessingFee)
	if err != nil {
		return nil, fmt.Errorf("sweep round-ups: %w", err)
	}
	if d != nil {
		s.Logger.Info("donation created",
			zap.Int64("donation_id", d.ID),
			zap.Int64("user_id", userID),
			zap.Int64("church_id", church.ID),
			zap.Int64("gross_cents", d.GrossCents))
	}
	return d, nil
}

func (s *GivingService) RoundUps(ctx context.Context, userID int64, limit int) ([]*models.RoundUp, error) {
	list, err := s.Giving.ListRoundUps(ctx, userID, clampLimit(limit))
	if list == nil && err == nil {
		list = []*models.RoundUp{}
	}
	return list, err
}

func (s *GivingService) Donations(ctx context.Context, userID int64, limit int) ([]*models.Donation, error) {
	list, err := s.Giving.ListDonations(ctx, models.DonationFilter{UserID: userID, Limit: clampLimit(limit)})
	if list == nil && err == nil {
		list = []*models.Donation{}
	}
	return list, err
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
