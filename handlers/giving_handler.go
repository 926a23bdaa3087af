package handlers

import (
	"net/http"

	"dailybread/services"

	"go.uber.org/zap"
)

type GivingHandler struct {
	Giving    *services.GivingService
	Dashboard *services.DashboardService
	Logger    *zap.Logger
}

func (h *GivingHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	s, err := h.Giving.GetSettings(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load settings")
		return
	}
	writeOK(w, "", s)
}

func (h *GivingHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in services.SettingsInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p := PrincipalFrom(r.Context())
	s, err := h.Giving.UpdateSettings(r.Context(), p.User.ID, in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to save settings")
		return
	}
	writeOK(w, "Settings saved", s)
}

func (h *GivingHandler) SaveCard(w http.ResponseWriter, r *http.Request) {
	var in services.CardInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p := PrincipalFrom(r.Context())
	s, err := h.Giving.SaveCard(r.Context(), p.User.ID, in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to save card")
		return
	}
	writeOK(w, "Card saved", s)
}

func (h *GivingHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	s, err := h.Giving.RemoveCard(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to remove card")
		return
	}
	writeOK(w, "Card removed", s)
}

// RecordRoundUp handles POST /api/roundups for one card purchase.
func (h *GivingHandler) RecordRoundUp(w http.ResponseWriter, r *http.Request) {
	var in services.PurchaseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p := PrincipalFrom(r.Context())
	res, err := h.Giving.RecordPurchase(r.Context(), p.User.ID, in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to record purchase")
		return
	}
	msg := "Round-up recorded"
	if res.Donation != nil {
		msg = "Threshold reached! A donation is on its way."
	}
	WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: msg, Data: res})
}

func (h *GivingHandler) ListRoundUps(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	list, err := h.Giving.RoundUps(r.Context(), p.User.ID, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load round-ups")
		return
	}
	writeOK(w, "", list)
}

func (h *GivingHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	list, err := h.Giving.Donations(r.Context(), p.User.ID, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load donations")
		return
	}
	writeOK(w, "", list)
}

func (h *GivingHandler) DonorDashboard(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	d, err := h.Dashboard.Donor(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load dashboard")
		return
	}
	writeOK(w, "", d)
}
