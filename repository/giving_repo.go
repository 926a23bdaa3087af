package repository

import (
	"context"
	"time"

	"dailybread/models"
)

// FeeFunc computes the processing fee for a gross donation amount.
type FeeFunc func(grossCents int64) int64

type GivingRepository interface {
	AddRoundUp(ctx context.Context, ru *models.RoundUp) error
	ListRoundUps(ctx context.Context, userID int64, limit int) ([]*models.RoundUp, error)
	PendingBalance(ctx context.Context, userID int64) (int64, error)
	// SweepPending turns every pending round-up of the user into one pending
	// donation when their sum reaches minCents. It returns nil when the
	// balance is below minCents.
	SweepPending(ctx context.Context, userID, churchID, minCents int64, fee FeeFunc) (*models.Donation, error)

	ListDonations(ctx context.Context, filter models.DonationFilter) ([]*models.Donation, error)
	DonationTotals(ctx context.Context, filter models.DonationFilter) (models.DonationTotals, error)
	TopGivers(ctx context.Context, churchID int64, since time.Time, limit int) ([]models.Giver, error)
	// ClaimPendingDonations leases up to limit unclaimed pending donations,
	// oldest first. A lease ends at UpdateDonation or after the lease duration.
	ClaimPendingDonations(ctx context.Context, limit int, lease time.Duration) ([]*models.Donation, error)
	UpdateDonation(ctx context.Context, d *models.Donation) error
}
