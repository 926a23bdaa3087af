package services

import (
	"net/http"

	"dailybread/models"
)

// Portal is the sign-in entry point the user picked.
type Portal string

const (
	PortalDonor  Portal = "donor"
	PortalChurch Portal = "church"
)

const (
	PathAuth          = "/auth"
	PathDashboard     = "/dashboard"
	PathChurchAdmin   = "/church-admin"
	PathPlatformAdmin = "/platform-admin"
)

// Decision is the outcome of a route guard check.
type Decision struct {
	Allow    bool
	Status   int
	Redirect string
}

// Guard decides whether user may reach a route that requires role. An empty
// role only requires a signed-in user. rolesErr is the error from looking
// up the user's roles, and any such error denies access.
func Guard(user *models.AppUser, roles []models.UserRole, rolesErr error, role models.Role) Decision {
	if user == nil {
		return Decision{Status: http.StatusUnauthorized, Redirect: PathAuth}
	}
	if role == "" {
		return Decision{Allow: true, Status: http.StatusOK}
	}
	if rolesErr != nil || !models.HasRole(roles, role) {
		return Decision{Status: http.StatusForbidden, Redirect: PathDashboard}
	}
	return Decision{Allow: true, Status: http.StatusOK}
}

// Landing picks the dashboard a user lands on after signing in.
func Landing(roles []models.UserRole, portal Portal) string {
	switch portal {
	case PortalDonor:
		return PathDashboard
	case PortalChurch:
		if models.HasRole(roles, models.RoleChurchAdmin) {
			return PathChurchAdmin
		}
		return PathDashboard
	}
	switch {
	case models.HasRole(roles, models.RolePlatformAdmin):
		return PathPlatformAdmin
	case models.HasRole(roles, models.RoleChurchAdmin):
		return PathChurchAdmin
	}
	return PathDashboard
}
