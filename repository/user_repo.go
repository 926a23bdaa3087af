package repository

import (
	"context"

	"dailybread/models"
)

// UserRepository defines account and profile operations.
type UserRepository interface {
	// CreateUser inserts the user, an empty profile and default giving
	// settings. Email collisions return ErrDuplicate.
	CreateUser(ctx context.Context, user *models.AppUser, profile *models.Profile) error
	// CreateChurchAdmin registers the user, a pending church, the church_admin
	// role and links the profile to the church in one transaction.
	CreateChurchAdmin(ctx context.Context, user *models.AppUser, profile *models.Profile, church *models.Church) error
	GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error)
	GetUserByID(ctx context.Context, id int64) (*models.AppUser, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	SetProfileChurch(ctx context.Context, userID int64, churchID *int64) error
}
