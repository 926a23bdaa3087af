package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dailybread/services"

	"go.uber.org/zap"
)

type PDFHandler struct {
	Statements *services.StatementService
	Logger     *zap.Logger
}

// GivingStatement handles GET /api/donations/statement?year=. It answers
// with a download URL when the PDF was uploaded, and streams it otherwise.
func (h *PDFHandler) GivingStatement(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}

	p := PrincipalFrom(r.Context())
	st, err := h.Statements.Generate(r.Context(), p.User.ID, year)
	if err != nil {
		writeError(w, h.Logger, err, "Failed to generate statement")
		return
	}

	if st.URL != "" {
		writeOK(w, "Statement ready", map[string]string{"url": st.URL, "file": st.Filename})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, st.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(st.PDF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(st.PDF)
}
