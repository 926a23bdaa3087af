package services

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrChurchExists       = errors.New("church name already taken")
	ErrChurchNotFound     = errors.New("church not found")
	ErrChurchInactive     = errors.New("church is not active")
	ErrNoChurch           = errors.New("no church selected")
	ErrInvalidTransition  = errors.New("church is not pending review")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError reports a single invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func checkLength(field, label, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	switch {
	case min > 0 && n == 0:
		return invalid(field, label+" is required")
	case n < min:
		return invalid(field, fmt.Sprintf("%s must be at least %d characters", label, min))
	case n > max:
		return invalid(field, fmt.Sprintf("%s must be less than %d characters", label, max))
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < 6 {
		return invalid("password", "Password must be at least 6 characters")
	}
	return nil
}

func checkEmail(field, email string) error {
	if email == "" {
		return invalid(field, "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return invalid(field, "Please enter a valid email")
	}
	return nil
}

func checkURL(field, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(field, "Please enter a valid URL")
	}
	return nil
}

// optional trims s and returns nil for an empty result.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
