package routes

import (
	"net/http"

	"dailybread/handlers"
	"dailybread/models"
	"dailybread/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth       *services.AuthService
	User       *handlers.UserHandler
	Church     *handlers.ChurchHandler
	Giving     *handlers.GivingHandler
	Admin      *handlers.AdminHandler
	PDF        *handlers.PDFHandler
	Contact    *handlers.ContactHandler
	CORSOrigin string
	Logger     *zap.Logger
}

func SetupRoutes(h Handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(h.Logger), withCORS(h.CORSOrigin))
	// Preflight requests never match a method-restricted route.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	r.HandleFunc("/healthz", handlers.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pricing", handlers.Pricing).Methods(http.MethodGet)
	api.HandleFunc("/contact", h.Contact.Send).Methods(http.MethodPost)

	// Auth routes
	api.HandleFunc("/auth/signup", h.User.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/church-signup", h.User.ChurchSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.User.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", h.User.Session).Methods(http.MethodGet)

	// Public church lookup
	api.HandleFunc("/churches/search", h.Church.Search).Methods(http.MethodGet)
	api.HandleFunc("/churches/slug/{slug}", h.Church.BySlug).Methods(http.MethodGet)

	// Signed-in donors
	authed := api.NewRoute().Subrouter()
	authed.Use(RequireAuth(h.Auth, h.Logger))
	authed.HandleFunc("/auth/logout", h.User.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/profile", h.User.GetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/profile", h.User.UpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/my-church", h.Church.MyChurch).Methods(http.MethodGet)
	authed.HandleFunc("/my-church/join", h.Church.Join).Methods(http.MethodPost)
	authed.HandleFunc("/my-church/leave", h.Church.Leave).Methods(http.MethodPost)
	authed.HandleFunc("/churches", h.Church.Submit).Methods(http.MethodPost)
	authed.HandleFunc("/settings", h.Giving.GetSettings).Methods(http.MethodGet)
	authed.HandleFunc("/settings", h.Giving.UpdateSettings).Methods(http.MethodPut)
	authed.HandleFunc("/settings/card", h.Giving.SaveCard).Methods(http.MethodPut)
	authed.HandleFunc("/settings/card", h.Giving.RemoveCard).Methods(http.MethodDelete)
	authed.HandleFunc("/roundups", h.Giving.RecordRoundUp).Methods(http.MethodPost)
	authed.HandleFunc("/roundups", h.Giving.ListRoundUps).Methods(http.MethodGet)
	authed.HandleFunc("/donations", h.Giving.ListDonations).Methods(http.MethodGet)
	authed.HandleFunc("/donations/statement", h.PDF.GivingStatement).Methods(http.MethodGet)
	authed.HandleFunc("/dashboard", h.Giving.DonorDashboard).Methods(http.MethodGet)

	// Church admin routes
	church := api.PathPrefix("/church-admin").Subrouter()
	church.Use(RequireAuth(h.Auth, h.Logger), RequireRole(models.RoleChurchAdmin))
	church.HandleFunc("/dashboard", h.Church.AdminDashboard).Methods(http.MethodGet)
	church.HandleFunc("/donations.csv", h.Church.ExportDonations).Methods(http.MethodGet)
	church.HandleFunc("/church", h.Church.UpdateChurch).Methods(http.MethodPut)
	church.HandleFunc("/church/logo", h.Church.UploadLogo).Methods(http.MethodPost)

	// Platform admin routes
	platform := api.PathPrefix("/platform-admin").Subrouter()
	platform.Use(RequireAuth(h.Auth, h.Logger), RequireRole(models.RolePlatformAdmin))
	platform.HandleFunc("/churches", h.Admin.ListChurches).Methods(http.MethodGet)
	platform.HandleFunc("/churches/{id:[0-9]+}/approve", h.Admin.Approve).Methods(http.MethodPost)
	platform.HandleFunc("/churches/{id:[0-9]+}/reject", h.Admin.Reject).Methods(http.MethodPost)
	platform.HandleFunc("/audit", h.Admin.Audit).Methods(http.MethodGet)

	return handlers.RecoverWrapper(h.Logger, r)
}
