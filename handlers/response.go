package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"dailybread/repository"
	"dailybread/services"
	"dailybread/utils"

	"go.uber.org/zap"
)

// ApiResponse is the envelope every JSON endpoint answers with.
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON encodes resp as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, resp ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeOK(w http.ResponseWriter, message string, data interface{}) {
	WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: message, Data: data})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ApiResponse{Success: false, Message: message})
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// writeError maps service errors to responses. Unknown errors are logged
// and answered with fallback.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: verr.Message,
			Data:    map[string]string{"field": verr.Field},
		})
	case errors.Is(err, services.ErrUnauthenticated):
		WriteJSON(w, http.StatusUnauthorized, ApiResponse{
			Success: false,
			Message: "Please sign in",
			Data:    map[string]string{"redirect": services.PathAuth},
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeFail(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrEmailTaken):
		writeFail(w, http.StatusConflict, "An account with this email already exists. Try logging in.")
	case errors.Is(err, services.ErrChurchExists):
		writeFail(w, http.StatusConflict, "A church with this name already exists")
	case errors.Is(err, services.ErrChurchNotFound):
		writeFail(w, http.StatusNotFound, "Church not found")
	case errors.Is(err, services.ErrChurchInactive):
		writeFail(w, http.StatusConflict, "This church is not accepting donations yet")
	case errors.Is(err, services.ErrInvalidTransition):
		writeFail(w, http.StatusConflict, "Only pending churches can be reviewed")
	case errors.Is(err, services.ErrNoChurch):
		writeFail(w, http.StatusConflict, "Choose a church first")
	case errors.Is(err, services.ErrUserNotFound):
		writeFail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrNotFound):
		writeFail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, utils.ErrStorageDisabled):
		writeFail(w, http.StatusServiceUnavailable, "File uploads are not configured")
	default:
		logger.Error(fallback, zap.Error(err))
		writeFail(w, http.StatusInternalServerError, fallback)
	}
}

// BearerToken extracts the session token from the Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type principalKey struct{}

// WithPrincipal stores the authenticated caller on the request context.
func WithPrincipal(ctx context.Context, p *services.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) *services.Principal {
	p, _ := ctx.Value(principalKey{}).(*services.Principal)
	return p
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
