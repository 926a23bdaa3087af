package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"dailybread/models"
	"dailybread/repository"
	"dailybread/utils"

	"golang.org/x/sync/errgroup"
)

// Milestones are the lifetime giving totals a donor earns badges for.
var Milestones = []int64{10000, 25000, 50000, 100000, 250000, 500000, 1000000}

const (
	activityLimit    = 10
	recentDonations  = 10
	topGiverCount    = 5
	monthlyWindow    = 6
	exportBatchLimit = 10000
)

type ActivityItem struct {
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

type DonorDashboard struct {
	Church             *models.PublicChurch   `json:"church"`
	ThisMonthCents     int64                  `json:"this_month_cents"`
	AllTimeCents       int64                  `json:"all_time_cents"`
	DonationCount      int                    `json:"donation_count"`
	BalanceCents       int64                  `json:"balance_cents"`
	ThresholdCents     int64                  `json:"threshold_cents"`
	ProgressPercent    int                    `json:"progress_percent"`
	NextMilestoneCents *int64                 `json:"next_milestone_cents,omitempty"`
	MilestonePercent   int                    `json:"milestone_percent"`
	EarnedMilestones   []int64                `json:"earned_milestones"`
	Settings           *models.GivingSettings `json:"settings"`
	Activity           []ActivityItem         `json:"activity"`
}

type MonthTotal struct {
	Month string `json:"month"`
	Cents int64  `json:"cents"`
}

type RecentDonation struct {
	ID         int64                 `json:"id"`
	Donor      string                `json:"donor"`
	GrossCents int64                 `json:"gross_cents"`
	NetCents   int64                 `json:"net_cents"`
	Status     models.DonationStatus `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
}

type ChurchDashboard struct {
	Church         *models.Church   `json:"church"`
	TotalCents     int64            `json:"total_cents"`
	NetCents       int64            `json:"net_cents"`
	ThisMonthCents int64            `json:"this_month_cents"`
	DonationCount  int              `json:"donation_count"`
	ActiveGivers   int              `json:"active_givers"`
	AverageCents   int64            `json:"average_cents"`
	Monthly        []MonthTotal     `json:"monthly"`
	TopGivers      []models.Giver   `json:"top_givers"`
	Recent         []RecentDonation `json:"recent"`
	InviteLink     string           `json:"invite_link"`
}

type DashboardService struct {
	Users      repository.UserRepository
	Churches   repository.ChurchRepository
	Settings   repository.SettingsRepository
	Giving     repository.GivingRepository
	AppBaseURL string

	now func() time.Time
}

func NewDashboardService(users repository.UserRepository, churches repository.ChurchRepository,
	settings repository.SettingsRepository, giving repository.GivingRepository, appBaseURL string) *DashboardService {
	return &DashboardService{
		Users:      users,
		Churches:   churches,
		Settings:   settings,
		Giving:     giving,
		AppBaseURL: appBaseURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	p := part * 100 / whole
	if p > 100 {
		p = 100
	}
	return int(p)
}

// milestoneProgress returns the badges earned by total and the next one to
// reach, if any.
func milestoneProgress(total int64) (earned []int64, next *int64, pct int) {
	earned = []int64{}
	for _, m := range Milestones {
		if total >= m {
			earned = append(earned, m)
			continue
		}
		return earned, &m, percent(total, m)
	}
	return earned, nil, 100
}

func (s *DashboardService) Donor(ctx context.Context, userID int64) (*DonorDashboard, error) {
	profile, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	redactCard(settings)

	now := s.now()
	completed := models.DonationFilter{UserID: userID, Status: models.DonationCompleted}
	allTime, err := s.Giving.DonationTotals(ctx, completed)
	if err != nil {
		return nil, err
	}
	completed.Since = monthStart(now)
	thisMonth, err := s.Giving.DonationTotals(ctx, completed)
	if err != nil {
		return nil, err
	}
	balance, err := s.Giving.PendingBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &DonorDashboard{
		ThisMonthCents:  thisMonth.GrossCents,
		AllTimeCents:    allTime.GrossCents,
		DonationCount:   allTime.Count,
		BalanceCents:    balance,
		ThresholdCents:  settings.ThresholdCents,
		ProgressPercent: percent(balance, settings.ThresholdCents),
		Settings:        settings,
	}
	d.EarnedMilestones, d.NextMilestoneCents, d.MilestonePercent = milestoneProgress(allTime.GrossCents)

	if profile.ChurchID != nil {
		c, err := s.Churches.GetChurch(ctx, *profile.ChurchID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		d.Church = c.Public()
	}

	d.Activity, err = s.activity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// activity merges recent round-ups and donations, newest first.
func (s *DashboardService) activity(ctx context.Context, userID int64) ([]ActivityItem, error) {
	roundups, err := s.Giving.ListRoundUps(ctx, userID, activityLimit)
	if err != nil {
		return nil, err
	}
	donations, err := s.Giving.ListDonations(ctx, models.DonationFilter{UserID: userID, Limit: activityLimit})
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(roundups)+len(donations))
	for _, ru := range roundups {
		items = append(items, ActivityItem{
			Kind:        "roundup",
			Description: fmt.Sprintf("%s (%s)", ru.Merchant, utils.FormatCents(ru.PurchaseCents)),
			AmountCents: ru.AppliedCents,
			Status:      string(ru.Status),
			At:          ru.OccurredAt,
		})
	}
	for _, d := range donations {
		items = append(items, ActivityItem{
			Kind:        "donation",
			Description: fmt.Sprintf("Donation of %d round-ups", d.RoundUpCount),
			AmountCents: d.GrossCents,
			Status:      string(d.Status),
			At:          d.CreatedAt,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].At.After(items[j].At) })
	if len(items) > activityLimit {
		items = items[:activityLimit]
	}
	return items, nil
}

// Church builds the church admin dashboard. The independent aggregates run
// concurrently.
func (s *DashboardService) Church(ctx context.Context, churchID int64) (*ChurchDashboard, error) {
	church, err := s.Churches.GetChurch(ctx, churchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChurchNotFound
		}
		return nil, err
	}

	now := s.now()
	thisMonth := monthStart(now)
	d := &ChurchDashboard{
		Church:     church,
		Monthly:    make([]MonthTotal, monthlyWindow),
		InviteLink: s.AppBaseURL + "/my-church?church=" + church.Slug,
	}
	completed := models.DonationFilter{ChurchID: churchID, Status: models.DonationCompleted}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.Giving.DonationTotals(gctx, completed)
		if err != nil {
			return err
		}
		d.TotalCents, d.NetCents, d.DonationCount = t.GrossCents, t.NetCents, t.Count
		if t.Count > 0 {
			d.AverageCents = t.GrossCents / int64(t.Count)
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.Churches.CountMembers(gctx, churchID)
		d.ActiveGivers = n
		return err
	})
	for i := 0; i < monthlyWindow; i++ {
		start := thisMonth.AddDate(0, i-(monthlyWindow-1), 0)
		f := completed
		f.Since, f.Until = start, start.AddDate(0, 1, 0)
		g.Go(func() error {
			t, err := s.Giving.DonationTotals(gctx, f)
			if err != nil {
				return err
			}
			d.Monthly[i] = MonthTotal{Month: start.Format("2006-01"), Cents: t.GrossCents}
			if start.Equal(thisMonth) {
				d.ThisMonthCents = t.GrossCents
			}
			return nil
		})
	}
	g.Go(func() error {
		yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		givers, err := s.Giving.TopGivers(gctx, churchID, yearStart, topGiverCount)
		if givers == nil {
			givers = []models.Giver{}
		}
		d.TopGivers = givers
		return err
	})
	g.Go(func() error {
		recent, err := s.Giving.ListDonations(gctx, models.DonationFilter{ChurchID: churchID, Limit: recentDonations})
		if err != nil {
			return err
		}
		d.Recent = make([]RecentDonation, 0, len(recent))
		names := s.donorNames(gctx)
		for _, r := range recent {
			d.Recent = append(d.Recent, RecentDonation{
				ID:         r.ID,
				Donor:      names(r.UserID),
				GrossCents: r.GrossCents,
				NetCents:   r.NetCents,
				Status:     r.Status,
				CreatedAt:  r.CreatedAt,
			})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("church dashboard: %w", err)
	}
	return d, nil
}

// donorNames returns a cached lookup of "First L." names.
func (s *DashboardService) donorNames(ctx context.Context) func(int64) string {
	cache := make(map[int64]string)
	return func(userID int64) string {
		if name, ok := cache[userID]; ok {
			return name
		}
		name := "Anonymous"
		if p, err := s.Users.GetProfile(ctx, userID); err == nil {
			name = p.DisplayName()
		}
		cache[userID] = name
		return name
	}
}

// ExportDonationsCSV writes every donation of the church as CSV.
func (s *DashboardService) ExportDonationsCSV(ctx context.Context, churchID int64, w io.Writer) error {
	list, err := s.Giving.ListDonations(ctx, models.DonationFilter{ChurchID: churchID, Limit: exportBatchLimit})
	if err != nil {
		return err
	}
	names := s.donorNames(ctx)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "donor", "gross", "fee", "net", "status", "reference"}); err != nil {
		return err
	}
	for _, d := range list {
		ref := ""
		if d.ChargeRef != nil {
			ref = *d.ChargeRef
		}
		row := []string{
			d.CreatedAt.Format("2006-01-02"),
			names(d.UserID),
			centsDecimal(d.GrossCents),
			centsDecimal(d.FeeCents),
			centsDecimal(d.NetCents),
			string(d.Status),
			ref,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func centsDecimal(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
