package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/IACMS/IACMS/app"
	"github.com/IACMS/IACMS/handlers"
	"github.com/IACMS/IACMS/middleware"
	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/permissions"
)

// PublicRoutes is the unauthenticated allow-list. Everything else requires a
// credential, even routes absent from the permission table.
func PublicRoutes() []permissions.PublicRoute {
	return []permissions.PublicRoute{
		{Method: http.MethodGet, Path: "/healthz"},
		{Method: http.MethodGet, Path: "/readyz"},
		{Method: http.MethodPost, Path: "/auth/login"},
		{Method: http.MethodPost, Path: "/auth/refresh"},
	}
}

// RouteRules is the permission table. GET /api/v1/users/me is deliberately
// absent: it is identity-gated only. Logout is pinned to session credentials
// and the admin listing to bearer tokens, with tenant bypass available there
// to holders of the explicit grant.
func RouteRules() []permissions.RouteRule {
	return []permissions.RouteRule{
		{Method: http.MethodGet, Pattern: "/api/v1/cases", Permission: "cases:read"},
		{Method: http.MethodPost, Pattern: "/api/v1/cases", Permission: "cases:create"},
		{Method: http.MethodGet, Pattern: "/api/v1/cases/:id", Permission: "cases:read"},
		{Method: http.MethodGet, Pattern: "/api/v1/admin/cases", Permission: "cases:read", TenantBypass: true,
			AuthMethods: []models.AuthMethod{models.AuthMethodJWT}},
		{Method: http.MethodPost, Pattern: "/auth/logout",
			AuthMethods: []models.AuthMethod{models.AuthMethodSession}},
	}
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) (http.Handler, error) {
	matcher, err := permissions.NewMatcher(RouteRules())
	if err != nil {
		return nil, err
	}
	public := permissions.NewAllowlist(PublicRoutes())

	authn := middleware.NewAuthenticator(deps.Sessions, deps.Cookies, deps.TokenValidator, public, deps.Logger)
	authz := middleware.NewAuthorizer(matcher, deps.Grants, public, deps.Logger)

	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The whole surface runs behind the same two gates; per-route permission
	// differences live in the rule table, not in the router tree.
	r.Use(authn.Authenticate)
	r.Use(authz.Authorize)

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	// Credential endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handlers.LoginHandler(deps))
		r.Post("/logout", handlers.LogoutHandler(deps))
		r.Post("/refresh", handlers.RefreshHandler(deps))
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", handlers.ListCasesHandler(deps))
			r.Post("/", handlers.CreateCaseHandler(deps))
			r.Get("/{id}", handlers.GetCaseHandler(deps))
		})

		r.Get("/admin/cases", handlers.ListCasesHandler(deps))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", handlers.GetCurrentUserHandler(deps))
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r, nil
}
