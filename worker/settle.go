// Package worker runs the periodic settlement of pending donations.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dailybread/models"
	"dailybread/payments"
	"dailybread/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxAttempts is how many charges a donation gets before it is marked failed.
const MaxAttempts = 3

const reasonNoCard = "no payment method on file"

// claimLease bounds how long a crashed pass keeps donations from other workers.
const claimLease = 5 * time.Minute

// SessionPurger removes expired sessions each tick.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Result counts what one settlement pass did.
type Result struct {
	Completed int
	Retrying  int
	Failed    int
}

type Settler struct {
	Giving   repository.GivingRepository
	Settings repository.SettingsRepository
	Gateway  payments.Gateway
	Sessions SessionPurger
	Logger   *zap.Logger
	Batch    int
	Workers  int

	now func() time.Time
}

func NewSettler(giving repository.GivingRepository, settings repository.SettingsRepository,
	gateway payments.Gateway, sessions SessionPurger, logger *zap.Logger, batch, workers int) *Settler {
	if batch < 1 {
		batch = 25
	}
	if workers < 1 {
		workers = 1
	}
	return &Settler{
		Giving:   giving,
		Settings: settings,
		Gateway:  gateway,
		Sessions: sessions,
		Logger:   logger,
		Batch:    batch,
		Workers:  workers,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run settles on every tick until ctx is cancelled.
func (s *Settler) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.Logger.Error("settlement pass failed", zap.Error(err))
				}
				continue
			}
			if res.Completed+res.Retrying+res.Failed > 0 {
				s.Logger.Info("settlement pass",
					zap.Int("completed", res.Completed),
					zap.Int("retrying", res.Retrying),
					zap.Int("failed", res.Failed))
			}
		}
	}
}

// RunOnce charges one batch of pending donations.
func (s *Settler) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	if s.Sessions != nil {
		if n, err := s.Sessions.PurgeExpired(ctx); err != nil {
			s.Logger.Warn("session purge failed", zap.Error(err))
		} else if n > 0 {
			s.Logger.Debug("purged expired sessions", zap.Int64("count", n))
		}
	}

	pending, err := s.Giving.ClaimPendingDonations(ctx, s.Batch, claimLease)
	if err != nil {
		return res, fmt.Errorf("claim pending donations: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, d := range pending {
		g.Go(func() error {
			status, err := s.settle(gctx, d)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case models.DonationCompleted:
				res.Completed++
			case models.DonationFailed:
				res.Failed++
			default:
				res.Retrying++
			}
			return nil
		})
	}
	err = g.Wait()
	return res, err
}

// chargeKey is the same for every attempt on a donation so a charge the
// provider took before a timeout is not taken twice.
func chargeKey(d *models.Donation) string {
	return fmt.Sprintf("donation-%d", d.ID)
}

// settle makes one charge attempt. Only storage errors are returned; a
// declined charge is recorded on the donation.
func (s *Settler) settle(ctx context.Context, d *models.Donation) (models.DonationStatus, error) {
	settings, err := s.Settings.GetSettings(ctx, d.UserID)
	if err != nil {
		return "", fmt.Errorf("load settings for donation %d: %w", d.ID, err)
	}

	d.Attempts++
	var chargeErr error
	if settings.Card == nil || settings.Card.Token == "" {
		chargeErr = errors.New(reasonNoCard)
	} else {
		var charge *payments.ChargeResult
		charge, chargeErr = s.Gateway.Charge(ctx, payments.ChargeRequest{
			IdempotencyKey: chargeKey(d),
			AmountCents:    d.GrossCents,
			CardToken:      settings.Card.Token,
			Description:    fmt.Sprintf("Round-up donation %d", d.ID),
		})
		if chargeErr == nil {
			now := s.now()
			d.Status = models.DonationCompleted
			d.ChargeRef = &charge.ID
			d.FailureReason = nil
			d.SettledAt = &now
		}
	}

	if chargeErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		reason := chargeErr.Error()
		d.FailureReason = &reason
		// A declined key replays its decline, so declines end the donation.
		if d.Attempts >= MaxAttempts || errors.Is(chargeErr, payments.ErrDeclined) {
			now := s.now()
			d.Status = models.DonationFailed
			d.SettledAt = &now
		}
		s.Logger.Warn("donation charge failed",
			zap.Int64("donation_id", d.ID),
			zap.Int("attempt", d.Attempts),
			zap.String("reason", reason))
	}

	if err := s.Giving.UpdateDonation(ctx, d); err != nil {
		return "", fmt.Errorf("update donation %d: %w", d.ID, err)
	}
	return d.Status, nil
}
