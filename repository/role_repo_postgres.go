package repository

import (
	"context"
	"database/sql"
	"time"

	"dailybread/models"
)

type PostgresRoleRepo struct {
	DB *sql.DB
}

func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{DB: db}
}

func (r *PostgresRoleRepo) GetRoles(ctx context.Context, userID int64) ([]models.UserRole, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, role, church_id, created_at
		FROM user_roles
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.UserRole
	for rows.Next() {
		var ur models.UserRole
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.Role, &ur.ChurchID, &ur.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, ur)
	}
	return roles, rows.Err()
}

func (r *PostgresRoleRepo) AssignRole(ctx context.Context, ur *models.UserRole) error {
	if ur.CreatedAt.IsZero() {
		ur.CreatedAt = time.Now().UTC()
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO user_roles (user_id, role, church_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, ur.UserID, ur.Role, ur.ChurchID, ur.CreatedAt).Scan(&ur.ID)
	return mapPQError(err)
}
