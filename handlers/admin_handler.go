package handlers

import (
	"net/http"
	"strconv"

	"dailybread/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AdminHandler struct {
	Admin  *services.AdminService
	Logger *zap.Logger
}

func (h *AdminHandler) ListChurches(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Admin.ListChurches(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load churches")
		return
	}
	writeOK(w, "", listing)
}

func churchIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeFail(w, http.StatusBadRequest, "invalid church id")
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := churchIDVar(w, r)
	if !ok {
		return
	}
	p := PrincipalFrom(r.Context())
	c, err := h.Admin.Approve(r.Context(), p.User.ID, id)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to approve church")
		return
	}
	writeOK(w, c.Name+" has been approved", c)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := churchIDVar(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	// The reason is optional, so an empty body is fine.
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}
	p := PrincipalFrom(r.Context())
	c, err := h.Admin.Reject(r.Context(), p.User.ID, id, body.Reason)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to reject church")
		return
	}
	writeOK(w, c.Name+" has been rejected", c)
}

func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	events, err := h.Admin.AuditLog(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, h.Logger, err, "Failed to load audit log")
		return
	}
	writeOK(w, "", events)
}
