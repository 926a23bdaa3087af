package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dailybread/models"
	"dailybread/repository"

	"go.uber.org/zap"
)

// ChurchListing is the platform admin's review queue.
type ChurchListing struct {
	Churches []*models.Church           `json:"churches"`
	Counts   map[models.ChurchStatus]int `json:"counts"`
}

type AdminService struct {
	Churches repository.ChurchRepository
	Users    repository.UserRepository
	Roles    repository.RoleRepository
	Audit    repository.AuditRepository
	Logger   *zap.Logger
}

// ListChurches lists churches newest first. status may be empty or "all".
func (s *AdminService) ListChurches(ctx context.Context, status string) (*ChurchListing, error) {
	filter := models.ChurchFilter{NewestFirst: true}
	if status != "" && status != "all" {
		st := models.ChurchStatus(status)
		if !st.Valid() {
			return nil, invalid("status", "Unknown status "+status)
		}
		filter.Status = st
	}
	list, err := s.Churches.ListChurches(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list churches: %w", err)
	}
	counts, err := s.Churches.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count churches: %w", err)
	}
	if list == nil {
		list = []*models.Church{}
	}
	return &ChurchListing{Churches: list, Counts: counts}, nil
}

func (s *AdminService) Approve(ctx context.Context, actorID, churchID int64) (*models.Church, error) {
	c, err := s.transition(ctx, churchID, models.ChurchActive, nil)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("church approved", zap.Int64("church_id", churchID), zap.Int64("actor_id", actorID))
	recordAudit(ctx, s.Audit, s.Logger, &models.AuditEvent{
		Action:   models.AuditChurchApproved,
		ActorID:  actorID,
		ChurchID: &c.ID,
		Detail:   c.Name,
	})
	return c, nil
}

func (s *AdminService) Reject(ctx context.Context, actorID, churchID int64, reason string) (*models.Church, error) {
	reason = strings.TrimSpace(reason)
	if err := checkLength("reason", "Reason", reason, 0, 500); err != nil {
		return nil, err
	}
	c, err := s.transition(ctx, churchID, models.ChurchRejected, optional(reason))
	if err != nil {
		return nil, err
	}
	s.Logger.Info("church rejected", zap.Int64("church_id", churchID), zap.Int64("actor_id", actorID))
	detail := c.Name
	if reason != "" {
		detail += ": " + reason
	}
	recordAudit(ctx, s.Audit, s.Logger, &models.AuditEvent{
		Action:   models.AuditChurchRejected,
		ActorID:  actorID,
		ChurchID: &c.ID,
		Detail:   detail,
	})
	return c, nil
}

func (s *AdminService) transition(ctx context.Context, churchID int64, to models.ChurchStatus, reason *string) (*models.Church, error) {
	c, err := s.Churches.TransitionStatus(ctx, churchID, models.ChurchPending, to, reason)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrChurchNotFound
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrInvalidTransition
	case err != nil:
		return nil, fmt.Errorf("update church status: %w", err)
	}
	return c, nil
}

func (s *AdminService) AuditLog(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events, err := s.Audit.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.AuditEvent{}
	}
	return events, nil
}

// GrantRole assigns role to the account with email. church_admin requires
// the slug of the church to manage.
func (s *AdminService) GrantRole(ctx context.Context, actorID int64, email string, role models.Role, churchSlug string) (*models.UserRole, error) {
	if !role.Valid() {
		return nil, invalid("role", "Role must be church_admin or platform_admin")
	}
	user, err := s.Users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ur := &models.UserRole{UserID: user.ID, Role: role}
	if role == models.RoleChurchAdmin {
		if churchSlug == "" {
			return nil, invalid("church", "church_admin requires a church")
		}
		c, err := s.Churches.GetChurchBySlug(ctx, churchSlug)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrChurchNotFound
			}
			return nil, err
		}
		ur.ChurchID = &c.ID
	}
	if err := s.Roles.AssignRole(ctx, ur); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	recordAudit(ctx, s.Audit, s.Logger, &models.AuditEvent{
		Action:   models.AuditRoleGranted,
		ActorID:  actorID,
		ChurchID: ur.ChurchID,
		Detail:   fmt.Sprintf("%s -> %s", user.Email, role),
	})
	return ur, nil
}
