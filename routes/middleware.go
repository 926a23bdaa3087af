package routes

import (
	"errors"
	"net/http"
	"time"

	"dailybread/handlers"
	"dailybread/models"
	"dailybread/services"

	"go.uber.org/zap"
)

// CORS middleware
func withCORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			// Handle preflight request
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func deny(w http.ResponseWriter, d services.Decision) {
	msg := "Please sign in"
	if d.Status == http.StatusForbidden {
		msg = "You don't have access to this page"
	}
	handlers.WriteJSON(w, d.Status, handlers.ApiResponse{
		Success: false,
		Message: msg,
		Data:    map[string]string{"redirect": d.Redirect},
	})
}

// RequireAuth resolves the bearer token and stores the caller on the
// request context.
func RequireAuth(auth *services.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := auth.Authenticate(r.Context(), handlers.BearerToken(r))
			if err != nil {
				if !errors.Is(err, services.ErrUnauthenticated) {
					logger.Error("authentication failed", zap.Error(err))
				}
				deny(w, services.Guard(nil, nil, nil, ""))
				return
			}
			next.ServeHTTP(w, r.WithContext(handlers.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole only lets callers holding role through. It must run after
// RequireAuth.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var d services.Decision
			if p := handlers.PrincipalFrom(r.Context()); p != nil {
				d = services.Guard(p.User, p.Roles, p.RolesErr, role)
			} else {
				d = services.Guard(nil, nil, nil, role)
			}
			if !d.Allow {
				deny(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
