package repository

import (
	"context"

	"dailybread/models"
)

type RoleRepository interface {
	GetRoles(ctx context.Context, userID int64) ([]models.UserRole, error)
	AssignRole(ctx context.Context, role *models.UserRole) error
}
