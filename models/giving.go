package models

import "time"

type Card struct {
	Brand    string `json:"brand" db:"card_brand"`
	Last4    string `json:"last4" db:"card_last4"`
	ExpMonth int    `json:"exp_month" db:"card_exp_month"`
	ExpYear  int    `json:"exp_year" db:"card_exp_year"`
	Token    string `json:"token,omitempty" db:"card_token"`
}

type GivingSettings struct {
	UserID               int64     `json:"user_id" db:"user_id"`
	RoundUpsEnabled      bool      `json:"roundups_enabled" db:"roundups_enabled"`
	ThresholdCents       int64     `json:"threshold_cents" db:"threshold_cents"`
	Multiplier           int       `json:"multiplier" db:"multiplier"`
	EmailUpdates         bool      `json:"email_updates" db:"email_updates"`
	MonthlySummary       bool      `json:"monthly_summary" db:"monthly_summary"`
	NotifyBeforeDonation bool      `json:"notify_before_donation" db:"notify_before_donation"`
	Card                 *Card     `json:"card,omitempty"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultGivingSettings mirrors what a new donor starts with.
func DefaultGivingSettings(userID int64) *GivingSettings {
	return &GivingSettings{
		UserID:          userID,
		RoundUpsEnabled: true,
		ThresholdCents:  700,
		Multiplier:      1,
		EmailUpdates:    true,
		MonthlySummary:  true,
	}
}

type RoundUpStatus string

const (
	RoundUpPending RoundUpStatus = "pending"
	RoundUpSwept   RoundUpStatus = "swept"
	RoundUpSkipped RoundUpStatus = "skipped"
)

// RoundUp is one card purchase and the spare change it produced.
type RoundUp struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	Merchant      string        `json:"merchant" db:"merchant"`
	PurchaseCents int64         `json:"purchase_cents" db:"purchase_cents"`
	RoundUpCents  int64         `json:"roundup_cents" db:"roundup_cents"`
	Multiplier    int           `json:"multiplier" db:"multiplier"`
	AppliedCents  int64         `json:"applied_cents" db:"applied_cents"`
	Status        RoundUpStatus `json:"status" db:"status"`
	DonationID    *int64        `json:"donation_id,omitempty" db:"donation_id"`
	OccurredAt    time.Time     `json:"occurred_at" db:"occurred_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
)

type Donation struct {
	ID            int64          `json:"id" db:"id"`
	UserID        int64          `json:"user_id" db:"user_id"`
	ChurchID      int64          `json:"church_id" db:"church_id"`
	GrossCents    int64          `json:"gross_cents" db:"gross_cents"`
	FeeCents      int64          `json:"fee_cents" db:"fee_cents"`
	NetCents      int64          `json:"net_cents" db:"net_cents"`
	RoundUpCount  int            `json:"roundup_count" db:"roundup_count"`
	Status        DonationStatus `json:"status" db:"status"`
	Attempts      int            `json:"attempts" db:"attempts"`
	ChargeRef     *string        `json:"charge_ref,omitempty" db:"charge_ref"`
	FailureReason *string        `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	SettledAt     *time.Time     `json:"settled_at,omitempty" db:"settled_at"`
}

// DonationFilter selects donations. Zero fields are ignored.
type DonationFilter struct {
	UserID   int64
	ChurchID int64
	Status   DonationStatus
	Since    time.Time
	Until    time.Time
	Limit    int
}

type DonationTotals struct {
	GrossCents int64 `json:"gross_cents"`
	NetCents   int64 `json:"net_cents"`
	Count      int   `json:"count"`
	Donors     int   `json:"donors"`
}

type Giver struct {
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Donations  int    `json:"donations"`
	TotalCents int64  `json:"total_cents"`
}
