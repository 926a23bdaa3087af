package handlers

import (
	"net/http"

	"dailybread/services"

	"go.uber.org/zap"
)

type ContactHandler struct {
	Contact *services.ContactService
	Logger  *zap.Logger
}

func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in services.ContactInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if _, err := h.Contact.Send(r.Context(), in); err != nil {
		writeError(w, h.Logger, err, "Failed to send message")
		return
	}
	WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Message sent! We'll get back to you soon.",
	})
}

func Pricing(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", services.CurrentPricing())
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "ok", nil)
}
