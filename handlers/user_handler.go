package handlers

import (
	"net/http"

	"dailybread/services"

	"go.uber.org/zap"
)

type UserHandler struct {
	Auth   *services.AuthService
	Logger *zap.Logger
}

// Signup handler
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignUpInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.Auth.SignUp(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to create account")
		return
	}

	WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Account created! Welcome to Daily Bread.",
		Data:    res,
	})
}

// ChurchSignup registers a church admin together with their church.
func (h *UserHandler) ChurchSignup(w http.ResponseWriter, r *http.Request) {
	var in services.ChurchSignUpInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.Auth.SignUpChurchAdmin(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to create church account")
		return
	}

	WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Church registered! We'll review it shortly.",
		Data:    res,
	})
}

// Login handler
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string          `json:"email"`
		Password string          `json:"password"`
		Portal   services.Portal `json:"portal"`
	}
	if !decodeJSON(w, r, &creds) {
		return
	}

	res, err := h.Auth.SignIn(r.Context(), creds.Email, creds.Password, creds.Portal)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to sign in")
		return
	}

	writeOK(w, "Login successful", res)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(r.Context(), BearerToken(r)); err != nil {
		writeError(w, h.Logger, err, "Failed to sign out")
		return
	}
	writeOK(w, "Signed out", nil)
}

func (h *UserHandler) Session(w http.ResponseWriter, r *http.Request) {
	res, err := h.Auth.Session(r.Context(), BearerToken(r))
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load session")
		return
	}
	writeOK(w, "", res)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	profile, err := h.Auth.Profile(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load profile")
		return
	}
	writeOK(w, "", map[string]interface{}{
		"email":   p.User.Email,
		"profile": profile,
	})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p := PrincipalFrom(r.Context())
	profile, err := h.Auth.UpdateProfile(r.Context(), p.User.ID, in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to update profile")
		return
	}
	writeOK(w, "Profile updated", profile)
}
