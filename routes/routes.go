package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/coe-portal/app"
	"github.com/upb/coe-portal/auth"
	"github.com/upb/coe-portal/handlers"
	"github.com/upb/coe-portal/middleware"
	"github.com/upb/coe-portal/models"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.SessionStore, deps.Logger)
	portal := handlers.NewPortalHandler(deps.Composer, deps.Accounts, deps.Logger)
	authHandler := auth.NewHandler(deps.SessionMiddleware, deps.Audit, deps.Logger)
	gate := deps.GateMiddleware

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Everything below carries a session
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMiddleware.LoadSession)

		r.Get("/", portal.HandleLanding)
		r.Get("/login", portal.HandleLoginPage)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/session", authHandler.HandleSession)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/layout", portal.HandleLayout)
			r.Get("/navigation/screens", portal.HandleScreens)
		})

		// Role dashboards
		r.Route("/admin", func(r chi.Router) {
			r.Use(gate.RequireRoles(models.RoleAdmin))
			r.Get("/", portal.HandleDashboard)
			r.Get("/accounts", portal.HandleListAccounts)
			r.Get("/accounts/{email}", portal.HandleGetAccount)
			r.Get("/{section}", portal.HandleDashboard)
		})

		r.Route("/faculty", func(r chi.Router) {
			r.Use(gate.RequireRoles(models.RoleFaculty))
			r.Get("/", portal.HandleDashboard)
			r.Get("/{section}", portal.HandleDashboard)
		})

		r.Route("/student", func(r chi.Router) {
			r.Use(gate.RequireRoles(models.RoleStudent))
			r.Get("/", portal.HandleDashboard)
			r.Get("/{section}", portal.HandleDashboard)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
