package services

import (
	"context"
	"fmt"
	"time"

	"dailybread/models"
	"dailybread/repository"
	"dailybread/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Statement is a rendered annual giving statement. URL is set when the PDF
// was uploaded to object storage.
type Statement struct {
	Filename string
	PDF      []byte
	URL      string
}

// RenderPDF converts an HTML document into a PDF.
type RenderPDF func(ctx context.Context, html []byte) ([]byte, error)

type StatementService struct {
	Users    repository.UserRepository
	Churches repository.ChurchRepository
	Giving   repository.GivingRepository
	Store    ObjectStore
	Render   RenderPDF
	Logger   *zap.Logger

	now func() time.Time
}

func NewStatementService(users repository.UserRepository, churches repository.ChurchRepository,
	giving repository.GivingRepository, store ObjectStore, logger *zap.Logger) *StatementService {
	return &StatementService{
		Users:    users,
		Churches: churches,
		Giving:   giving,
		Store:    store,
		Render:   utils.HTMLToPDF,
		Logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Build collects the completed donations of year into statement data.
func (s *StatementService) Build(ctx context.Context, userID int64, year int) (*models.GivingStatementData, error) {
	now := s.now()
	if year < 2000 || year > now.Year() {
		return nil, invalid("year", fmt.Sprintf("Year must be between 2000 and %d", now.Year()))
	}
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	donations, err := s.Giving.ListDonations(ctx, models.DonationFilter{
		UserID: userID,
		Status: models.DonationCompleted,
		Since:  start,
		Until:  start.AddDate(1, 0, 0),
	})
	if err != nil {
		return nil, err
	}

	data := &models.GivingStatementData{
		Year:        year,
		DonorName:   profile.FirstName + " " + profile.LastName,
		DonorEmail:  user.Email,
		GeneratedOn: now.Format("January 2, 2006"),
		Lines:       make([]models.StatementLine, 0, len(donations)),
	}
	churchNames := make(map[int64]string)
	// Statements read oldest first.
	for i := len(donations) - 1; i >= 0; i-- {
		d := donations[i]
		name, ok := churchNames[d.ChurchID]
		if !ok {
			name = "Unknown church"
			if c, err := s.Churches.GetChurch(ctx, d.ChurchID); err == nil {
				name = c.Name
			}
			churchNames[d.ChurchID] = name
		}
		ref := fmt.Sprintf("DB-%06d", d.ID)
		if d.ChargeRef != nil {
			ref = *d.ChargeRef
		}
		data.Lines = append(data.Lines, models.StatementLine{
			Date:   d.CreatedAt.Format("Jan 2, 2006"),
			Church: name,
			Amount: utils.FormatCents(d.GrossCents),
			Ref:    ref,
		})
		data.TotalCents += d.GrossCents
	}
	if len(churchNames) == 1 {
		for _, name := range churchNames {
			data.ChurchName = name
		}
	}
	data.Total = utils.FormatCents(data.TotalCents)
	data.TotalWords = utils.CentsToWords(data.TotalCents)
	return data, nil
}

// Generate renders the statement PDF and uploads it when object storage is
// configured.
func (s *StatementService) Generate(ctx context.Context, userID int64, year int) (*Statement, error) {
	data, err := s.Build(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	html, err := utils.RenderStatementHTML(data)
	if err != nil {
		return nil, err
	}
	pdf, err := s.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}

	st := &Statement{
		Filename: fmt.Sprintf("giving-statement-%d.pdf", year),
		PDF:      pdf,
	}
	if s.Store == nil {
		return st, nil
	}
	key := fmt.Sprintf("statements/%d/%d-%s.pdf", userID, year, uuid.NewString())
	url, err := s.Store.Upload(ctx, key, pdf, "application/pdf")
	if err != nil {
		s.Logger.Warn("statement upload failed, streaming instead", zap.Int64("user_id", userID), zap.Error(err))
		return st, nil
	}
	st.URL = url
	return st, nil
}
