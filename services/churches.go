package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dailybread/models"
	"dailybread/repository"
	"dailybread/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	searchLimit  = 10
	MaxLogoBytes = 2 << 20
)

var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ObjectStore uploads public files. utils.R2Store implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

type ChurchInput struct {
	Name         string `json:"name"`
	City         string `json:"city"`
	State        string `json:"state"`
	Website      string `json:"website"`
	ContactEmail string `json:"contact_email"`
}

func (in *ChurchInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Website = strings.TrimSpace(in.Website)
	in.ContactEmail = normalizeEmail(in.ContactEmail)
}

// validateDetails checks the fields a church admin may edit later.
func (in *ChurchInput) validateDetails() error {
	if err := checkLength("city", "City", in.City, 0, 50); err != nil {
		return err
	}
	if err := checkLength("state", "State", in.State, 0, 50); err != nil {
		return err
	}
	if in.Website != "" {
		if err := checkURL("website", in.Website); err != nil {
			return err
		}
	}
	if in.ContactEmail != "" {
		return checkEmail("contact_email", in.ContactEmail)
	}
	return nil
}

func (in *ChurchInput) validate() error {
	if err := checkLength("name", "Church name", in.Name, 2, 100); err != nil {
		return err
	}
	if utils.Slugify(in.Name) == "" {
		return invalid("name", "Church name must contain letters or numbers")
	}
	return in.validateDetails()
}

type ChurchService struct {
	Churches repository.ChurchRepository
	Users    repository.UserRepository
	Audit    repository.AuditRepository
	Store    ObjectStore
	Logger   *zap.Logger
}

// Search finds active churches by name or city. A blank query returns no
// results without touching the store.
func (s *ChurchService) Search(ctx context.Context, q string) ([]*models.PublicChurch, error) {
	q = strings.TrimSpace(q)
	out := []*models.PublicChurch{}
	if q == "" {
		return out, nil
	}
	list, err := s.Churches.ListChurches(ctx, models.ChurchFilter{
		Query:  q,
		Status: models.ChurchActive,
		Limit:  searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search churches: %w", err)
	}
	for _, c := range list {
		out = append(out, c.Public())
	}
	return out, nil
}

// BySlug resolves an invite link. Only active churches are visible.
func (s *ChurchService) BySlug(ctx context.Context, slug string) (*models.PublicChurch, error) {
	c, err := s.Churches.GetChurchBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChurchNotFound
		}
		return nil, err
	}
	if c.Status != models.ChurchActive {
		return nil, ErrChurchNotFound
	}
	return c.Public(), nil
}

// MyChurch returns the church the user gives to, or nil when none is set.
func (s *ChurchService) MyChurch(ctx context.Context, userID int64) (*models.PublicChurch, error) {
	profile, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.ChurchID == nil {
		return nil, nil
	}
	c, err := s.Churches.GetChurch(ctx, *profile.ChurchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c.Public(), nil
}

// Join points the user's giving at an active church.
func (s *ChurchService) Join(ctx context.Context, userID, churchID int64) (*models.PublicChurch, error) {
	c, err := s.Churches.GetChurch(ctx, churchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChurchNotFound
		}
		return nil, err
	}
	if c.Status != models.ChurchActive {
		return nil, ErrChurchInactive
	}
	if err := s.Users.SetProfileChurch(ctx, userID, &c.ID); err != nil {
		return nil, fmt.Errorf("join church: %w", err)
	}
	if n, err := s.Churches.CountMembers(ctx, c.ID); err != nil {
		s.Logger.Warn("count church members failed", zap.Int64("church_id", c.ID), zap.Error(err))
	} else {
		c.MemberCount = n
	}
	return c.Public(), nil
}

func (s *ChurchService) Leave(ctx context.Context, userID int64) error {
	return s.Users.SetProfileChurch(ctx, userID, nil)
}

// Submit adds a church for review and makes the submitter give to it.
func (s *ChurchService) Submit(ctx context.Context, userID int64, in ChurchInput) (*models.PublicChurch, error) {
	in.trim()
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.Church{
		Name:         in.Name,
		Slug:         utils.Slugify(in.Name),
		City:         optional(in.City),
		State:        optional(in.State),
		Website:      optional(in.Website),
		ContactEmail: optional(in.ContactEmail),
		Status:       models.ChurchPending,
	}
	if err := s.Churches.CreateChurch(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrChurchExists
		}
		return nil, fmt.Errorf("create church: %w", err)
	}
	if err := s.Users.SetProfileChurch(ctx, userID, &c.ID); err != nil {
		return nil, fmt.Errorf("join submitted church: %w", err)
	}
	c.MemberCount = 1

	recordAudit(ctx, s.Audit, s.Logger, &models.AuditEvent{
		Action:   models.AuditChurchSubmitted,
		ActorID:  userID,
		ChurchID: &c.ID,
		Detail:   c.Name,
	})
	return c.Public(), nil
}

// AdminChurch returns the full record of the church a church admin manages.
func (s *ChurchService) AdminChurch(ctx context.Context, churchID int64) (*models.Church, error) {
	c, err := s.Churches.GetChurch(ctx, churchID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChurchNotFound
	}
	return c, err
}

// UpdateDetails edits the contact fields of a church. The name and slug are
// fixed once submitted.
func (s *ChurchService) UpdateDetails(ctx context.Context, churchID int64, in ChurchInput) (*models.Church, error) {
	in.trim()
	if err := in.validateDetails(); err != nil {
		return nil, err
	}
	c, err := s.AdminChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}
	c.City = optional(in.City)
	c.State = optional(in.State)
	c.Website = optional(in.Website)
	c.ContactEmail = optional(in.ContactEmail)
	if err := s.Churches.UpdateChurch(ctx, c); err != nil {
		return nil, fmt.Errorf("update church: %w", err)
	}
	return c, nil
}

// UploadLogo stores a new logo and replaces the previous one.
func (s *ChurchService) UploadLogo(ctx context.Context, churchID int64, data []byte) (*models.Church, error) {
	if s.Store == nil {
		return nil, utils.ErrStorageDisabled
	}
	if len(data) == 0 {
		return nil, invalid("logo", "Logo file is required")
	}
	if len(data) > MaxLogoBytes {
		return nil, invalid("logo", "Logo must be 2 MB or smaller")
	}
	contentType := http.DetectContentType(data)
	ext, ok := logoTypes[contentType]
	if !ok {
		return nil, invalid("logo", "Logo must be a PNG, JPEG or WebP image")
	}

	c, err := s.AdminChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("logos/%d/%s%s", churchID, uuid.NewString(), ext)
	url, err := s.Store.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}

	previous := c.LogoURL
	c.LogoURL = &url
	if err := s.Churches.UpdateChurch(ctx, c); err != nil {
		return nil, fmt.Errorf("save logo: %w", err)
	}
	if previous != nil {
		if err := s.Store.Delete(ctx, *previous); err != nil {
			s.Logger.Warn("failed to delete old logo", zap.String("url", *previous), zap.Error(err))
		}
	}
	return c, nil
}

// recordAudit writes an audit event. Failures are logged, not returned.
func recordAudit(ctx context.Context, repo repository.AuditRepository, logger *zap.Logger, e *models.AuditEvent) {
	if repo == nil {
		return
	}
	if err := repo.Record(ctx, e); err != nil {
		logger.Error("failed to record audit event", zap.String("action", string(e.Action)), zap.Error(err))
	}
}
