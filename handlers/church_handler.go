package handlers

import (
	"errors"
	"io"
	"net/http"

	"dailybread/models"
	"dailybread/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ChurchHandler struct {
	Churches  *services.ChurchService
	Dashboard *services.DashboardService
	Logger    *zap.Logger
}

// Search handles GET /api/churches/search?q=
func (h *ChurchHandler) Search(w http.ResponseWriter, r *http.Request) {
	list, err := h.Churches.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.Logger, err, "Failed to search churches")
		return
	}
	writeOK(w, "", list)
}

func (h *ChurchHandler) BySlug(w http.ResponseWriter, r *http.Request) {
	c, err := h.Churches.BySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load church")
		return
	}
	writeOK(w, "", c)
}

func (h *ChurchHandler) MyChurch(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	c, err := h.Churches.MyChurch(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load your church")
		return
	}
	writeOK(w, "", map[string]interface{}{"church": c})
}

func (h *ChurchHandler) Join(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChurchID int64 `json:"church_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	p := PrincipalFrom(r.Context())
	c, err := h.Churches.Join(r.Context(), p.User.ID, body.ChurchID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to join church")
		return
	}
	writeOK(w, "You're now giving to "+c.Name+"!", c)
}

func (h *ChurchHandler) Leave(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if err := h.Churches.Leave(r.Context(), p.User.ID); err != nil {
		writeError(w, h.Logger, err, "Failed to leave church")
		return
	}
	writeOK(w, "You can now choose a new church", nil)
}

// Submit adds a church that is not listed yet.
func (h *ChurchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in services.ChurchInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p := PrincipalFrom(r.Context())
	c, err := h.Churches.Submit(r.Context(), p.User.ID, in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to add church")
		return
	}
	WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: c.Name + " was added and is pending review",
		Data:    c,
	})
}

// adminChurchID resolves the church managed by the calling church admin.
func adminChurchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := models.AdminChurchID(PrincipalFrom(r.Context()).Roles)
	if !ok {
		WriteJSON(w, http.StatusForbidden, ApiResponse{
			Success: false,
			Message: "No church is linked to your account",
			Data:    map[string]string{"redirect": services.PathDashboard},
		})
	}
	return id, ok
}

func (h *ChurchHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	churchID, ok := adminChurchID(w, r)
	if !ok {
		return
	}
	d, err := h.Dashboard.Church(r.Context(), churchID)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load church dashboard")
		return
	}
	writeOK(w, "", d)
}

func (h *ChurchHandler) ExportDonations(w http.ResponseWriter, r *http.Request) {
	churchID, ok := adminChurchID(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="donations.csv"`)
	if err := h.Dashboard.ExportDonationsCSV(r.Context(), churchID, w); err != nil {
		// Headers are already out; all we can do is log.
		h.Logger.Error("donation export failed", zap.Int64("church_id", churchID), zap.Error(err))
	}
}

func (h *ChurchHandler) UpdateChurch(w http.ResponseWriter, r *http.Request) {
	churchID, ok := adminChurchID(w, r)
	if !ok {
		return
	}
	var in services.ChurchInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.Churches.UpdateDetails(r.Context(), churchID, in)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to update church")
		return
	}
	writeOK(w, "Church updated", c)
}

// UploadLogo accepts a multipart form with a "logo" file.
func (h *ChurchHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	churchID, ok := adminChurchID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxLogoBytes+64<<10)
	file, _, err := r.FormFile("logo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFail(w, http.StatusRequestEntityTooLarge, "Logo must be 2 MB or smaller")
			return
		}
		writeFail(w, http.StatusBadRequest, "Logo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxLogoBytes+1))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "Failed to read logo")
		return
	}
	c, err := h.Churches.UploadLogo(r.Context(), churchID, data)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to upload logo")
		return
	}
	writeOK(w, "Logo updated", c)
}
