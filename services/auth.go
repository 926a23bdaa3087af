package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailybread/models"
	"dailybread/repository"
	"dailybread/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type ChurchSignUpInput struct {
	SignUpInput
	ChurchName string `json:"church_name"`
	City       string `json:"city"`
	State      string `json:"state"`
	Website    string `json:"website"`
}

// AuthResult is a signed-in session together with everything the client
// needs to route the user.
type AuthResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      *models.AppUser   `json:"user"`
	Profile   *models.Profile   `json:"profile"`
	Roles     []models.UserRole `json:"roles"`
	Landing   string            `json:"landing"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User     *models.AppUser
	Roles    []models.UserRole
	RolesErr error
}

type AuthService struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Roles    repository.RoleRepository
	TTL      time.Duration
	Logger   *zap.Logger

	now func() time.Time
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository,
	roles repository.RoleRepository, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		Users:    users,
		Sessions: sessions,
		Roles:    roles,
		TTL:      ttl,
		Logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (in *SignUpInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func (in *SignUpInput) validate() error {
	if err := checkEmail("email", in.Email); err != nil {
		return err
	}
	if err := checkPassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return invalid("confirm_password", "Passwords don't match")
	}
	if err := checkLength("first_name", "First name", in.FirstName, 1, 50); err != nil {
		return err
	}
	return checkLength("last_name", "Last name", in.LastName, 1, 50)
}

func (in *ChurchSignUpInput) validate() error {
	if err := in.SignUpInput.validate(); err != nil {
		return err
	}
	if err := checkLength("church_name", "Church name", in.ChurchName, 2, 100); err != nil {
		return err
	}
	if utils.Slugify(in.ChurchName) == "" {
		return invalid("church_name", "Church name must contain letters or numbers")
	}
	if err := checkLength("city", "City", in.City, 1, 50); err != nil {
		return err
	}
	if err := checkLength("state", "State", in.State, 1, 50); err != nil {
		return err
	}
	if in.Website != "" {
		return checkURL("website", in.Website)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SignUp registers a donor and signs them in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.AppUser{Email: in.Email, Password: hash}
	profile := &models.Profile{FirstName: in.FirstName, LastName: in.LastName}
	if err := s.Users.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.Logger.Info("donor signed up", zap.Int64("user_id", user.ID))
	return s.startSession(ctx, user, profile, nil, PortalDonor)
}

// SignUpChurchAdmin registers a user together with a pending church they
// administer.
func (s *AuthService) SignUpChurchAdmin(ctx context.Context, in ChurchSignUpInput) (*AuthResult, error) {
	in.normalize()
	in.ChurchName = strings.TrimSpace(in.ChurchName)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Website = strings.TrimSpace(in.Website)
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.AppUser{Email: in.Email, Password: hash}
	profile := &models.Profile{FirstName: in.FirstName, LastName: in.LastName}
	church := &models.Church{
		Name:         in.ChurchName,
		Slug:         utils.Slugify(in.ChurchName),
		City:         optional(in.City),
		State:        optional(in.State),
		Website:      optional(in.Website),
		ContactEmail: optional(in.Email),
		Status:       models.ChurchPending,
	}
	if err := s.Users.CreateChurchAdmin(ctx, user, profile, church); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Either the email or the church name collided.
			if _, lookupErr := s.Users.GetUserByEmail(ctx, in.Email); lookupErr == nil {
				return nil, ErrEmailTaken
			}
			return nil, ErrChurchExists
		}
		return nil, fmt.Errorf("create church admin: %w", err)
	}
	s.Logger.Info("church admin signed up",
		zap.Int64("user_id", user.ID), zap.Int64("church_id", church.ID))

	roles, err := s.Roles.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return s.startSession(ctx, user, profile, roles, PortalChurch)
}

// SignIn checks credentials and opens a session. The portal only affects
// the landing path.
func (s *AuthService) SignIn(ctx context.Context, email, password string, portal Portal) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := checkEmail("email", email); err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.Users.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	roles, err := s.Roles.GetRoles(ctx, user.ID)
	if err != nil {
		s.Logger.Warn("role lookup failed at sign in", zap.Int64("user_id", user.ID), zap.Error(err))
		roles = nil
	}
	return s.startSession(ctx, user, profile, roles, portal)
}

func (s *AuthService) startSession(ctx context.Context, user *models.AppUser, profile *models.Profile,
	roles []models.UserRole, portal Portal) (*AuthResult, error) {
	now := s.now()
	sess := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := s.Sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if roles == nil {
		roles = []models.UserRole{}
	}
	return &AuthResult{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      user,
		Profile:   profile,
		Roles:     roles,
		Landing:   Landing(roles, portal),
	}, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.Sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token. Role lookup failures are returned
// in Principal.RolesErr so guards can deny instead of failing the request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.Sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.now()) {
		_ = s.Sessions.DeleteSession(ctx, token)
		return nil, ErrUnauthenticated
	}
	user, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	roles, rolesErr := s.Roles.GetRoles(ctx, user.ID)
	if rolesErr != nil {
		s.Logger.Warn("role lookup failed", zap.Int64("user_id", user.ID), zap.Error(rolesErr))
	}
	return &Principal{User: user, Roles: roles, RolesErr: rolesErr}, nil
}

// Session describes the current session for the client.
func (s *AuthService) Session(ctx context.Context, token string) (*AuthResult, error) {
	p, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	sess, err := s.Sessions.GetSession(ctx, token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	profile, err := s.Users.GetProfile(ctx, p.User.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	roles := p.Roles
	if roles == nil {
		roles = []models.UserRole{}
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      p.User,
		Profile:   profile,
		Roles:     roles,
		Landing:   Landing(roles, ""),
	}, nil
}

type ProfileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	return s.Users.GetProfile(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.Profile, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := checkLength("first_name", "First name", in.FirstName, 1, 50); err != nil {
		return nil, err
	}
	if err := checkLength("last_name", "Last name", in.LastName, 1, 50); err != nil {
		return nil, err
	}
	if err := checkLength("phone", "Phone", strings.TrimSpace(in.Phone), 0, 20); err != nil {
		return nil, err
	}

	profile, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.FirstName = in.FirstName
	profile.LastName = in.LastName
	profile.Phone = optional(in.Phone)
	if err := s.Users.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// PurgeExpired removes sessions past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Sessions.DeleteExpiredSessions(ctx, s.now())
}
