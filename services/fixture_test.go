package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dailybread/models"
	"dailybread/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store     *repository.MemoryStore
	auth      *AuthService
	churches  *ChurchService
	admin     *AdminService
	giving    *GivingService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	return &fixture{
		store: store,
		auth:  NewAuthService(store, store, store, time.Hour, logger),
		churches: &ChurchService{
			Churches: store,
			Users:    store,
			Audit:    store,
			Logger:   logger,
		},
		admin: &AdminService{
			Churches: store,
			Users:    store,
			Roles:    store,
			Audit:    store,
			Logger:   logger,
		},
		giving:    NewGivingService(store, store, store, store, logger),
		dashboard: NewDashboardService(store, store, store, store, "https://app.example.org"),
	}
}

func (f *fixture) donor(t *testing.T, email, first, last string) *models.AppUser {
	t.Helper()
	u := &models.AppUser{Email: email, Password: "x"}
	require.NoError(t, f.store.CreateUser(context.Background(), u, &models.Profile{FirstName: first, LastName: last}))
	return u
}

func (f *fixture) church(t *testing.T, name string, status models.ChurchStatus) *models.Church {
	t.Helper()
	city := "Austin"
	c := &models.Church{Name: name, Slug: slugOf(name), City: &city, Status: status}
	require.NoError(t, f.store.CreateChurch(context.Background(), c))
	return c
}

func slugOf(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'A' && c <= 'Z':
			b[i] = c + 'a' - 'A'
		case c == ' ':
			b[i] = '-'
		}
	}
	return string(b)
}

// fakeStore records uploads in memory.
type fakeStore struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (s *fakeStore) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads[key] = body
	return "https://cdn.example.org/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fileURL)
	return nil
}

// failingRoles fails every role lookup.
type failingRoles struct{ repository.RoleRepository }

func (failingRoles) GetRoles(context.Context, int64) ([]models.UserRole, error) {
	return nil, errors.New("roles unavailable")
}

// failingMembers fails every member count.
type failingMembers struct{ repository.ChurchRepository }

func (failingMembers) CountMembers(context.Context, int64) (int, error) {
	return 0, errors.New("count unavailable")
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Field
}
