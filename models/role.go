package models

import "time"

type Role string

const (
	RoleChurchAdmin   Role = "church_admin"
	RolePlatformAdmin Role = "platform_admin"
)

func (r Role) Valid() bool {
	return r == RoleChurchAdmin || r == RolePlatformAdmin
}

type UserRole struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	ChurchID  *int64    `json:"church_id,omitempty" db:"church_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasRole reports whether any assignment in roles grants role.
func HasRole(roles []UserRole, role Role) bool {
	for _, r := range roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// AdminChurchID returns the church bound to the first church_admin
// assignment, if any.
func AdminChurchID(roles []UserRole) (int64, bool) {
	for _, r := range roles {
		if r.Role == RoleChurchAdmin && r.ChurchID != nil {
			return *r.ChurchID, true
		}
	}
	return 0, false
}
