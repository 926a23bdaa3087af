package services

import (
	"errors"
	"net/http"
	"testing"

	"dailybread/models"

	"github.com/stretchr/testify/assert"
)

func churchAdminRole(id int64) models.UserRole {
	return models.UserRole{Role: models.RoleChurchAdmin, ChurchID: &id}
}

func TestGuard(t *testing.T) {
	user := &models.AppUser{ID: 1, Email: "ana@example.com"}
	admin := []models.UserRole{churchAdminRole(4)}

	tests := []struct {
		name     string
		user     *models.AppUser
		roles    []models.UserRole
		rolesErr error
		role     models.Role
		want     Decision
	}{
		{"anonymous", nil, nil, nil, "", Decision{Status: http.StatusUnauthorized, Redirect: PathAuth}},
		{"anonymous on admin route", nil, admin, nil, models.RoleChurchAdmin, Decision{Status: http.StatusUnauthorized, Redirect: PathAuth}},
		{"signed in", user, nil, nil, "", Decision{Allow: true, Status: http.StatusOK}},
		{"role lookup failed on open route", user, nil, errors.New("down"), "", Decision{Allow: true, Status: http.StatusOK}},
		{"has role", user, admin, nil, models.RoleChurchAdmin, Decision{Allow: true, Status: http.StatusOK}},
		{"missing role", user, admin, nil, models.RolePlatformAdmin, Decision{Status: http.StatusForbidden, Redirect: PathDashboard}},
		{"role lookup failed", user, admin, errors.New("down"), models.RoleChurchAdmin, Decision{Status: http.StatusForbidden, Redirect: PathDashboard}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.user, tt.roles, tt.rolesErr, tt.role))
		})
	}
}

func TestLanding(t *testing.T) {
	church := []models.UserRole{churchAdminRole(4)}
	platform := []models.UserRole{{Role: models.RolePlatformAdmin}}
	both := append([]models.UserRole{{Role: models.RolePlatformAdmin}}, church...)

	assert.Equal(t, PathDashboard, Landing(nil, PortalDonor))
	assert.Equal(t, PathDashboard, Landing(church, PortalDonor))
	assert.Equal(t, PathChurchAdmin, Landing(church, PortalChurch))
	assert.Equal(t, PathDashboard, Landing(platform, PortalChurch))
	assert.Equal(t, PathDashboard, Landing(nil, PortalChurch))

	assert.Equal(t, PathPlatformAdmin, Landing(both, ""))
	assert.Equal(t, PathChurchAdmin, Landing(church, ""))
	assert.Equal(t, PathDashboard, Landing(nil, ""))
}
