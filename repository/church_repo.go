package repository

import (
	"context"

	"dailybread/models"
)

type ChurchRepository interface {
	// CreateChurch inserts the church; name or slug collisions return ErrDuplicate.
	CreateChurch(ctx context.Context, church *models.Church) error
	GetChurch(ctx context.Context, id int64) (*models.Church, error)
	GetChurchBySlug(ctx context.Context, slug string) (*models.Church, error)
	ListChurches(ctx context.Context, filter models.ChurchFilter) ([]*models.Church, error)
	UpdateChurch(ctx context.Context, church *models.Church) error
	// TransitionStatus moves a church from one status to another and returns
	// ErrConflict when the current status is not from.
	TransitionStatus(ctx context.Context, id int64, from, to models.ChurchStatus, reason *string) (*models.Church, error)
	CountByStatus(ctx context.Context) (map[models.ChurchStatus]int, error)
	CountMembers(ctx context.Context, churchID int64) (int, error)
}
