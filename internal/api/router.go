package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/docintake/internal/api/handlers"
	"github.com/nikhilbhutani/docintake/internal/api/middleware"
	"github.com/nikhilbhutani/docintake/internal/config"
)

// Deps are the services the HTTP surface is a thin layer over.
type Deps struct {
	Documents  handlers.DocumentService
	Accounts   handlers.AccountService
	Providers  handlers.ProviderStatuser
	Extraction handlers.ExtractionStatuser
	// Authenticate guards the user routes.
	Authenticate func(http.Handler) http.Handler
	Checks       map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{mux: chi.NewRouter(), cfg: cfg, deps: deps}
}

// Setup wires middleware and routes. ctx bounds background work such as
// rate-limiter eviction.
func (rt *Router) Setup(ctx context.Context) http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	if rt.cfg.Server.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(ctx, rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)
		r.Use(rl.Limit)
	}

	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	accountH := handlers.NewAccountHandler(rt.deps.Accounts)
	docH := handlers.NewDocumentHandler(rt.deps.Documents, rt.cfg.Server.MaxUploadBytes)
	statusH := handlers.NewStatusHandler(rt.deps.Providers, rt.deps.Extraction)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/google/verify", accountH.GoogleVerify)
		r.Get("/providers/status", statusH.Providers)
		r.Get("/extraction/status", statusH.Extraction)

		r.Group(func(r chi.Router) {
			r.Use(rt.deps.Authenticate)

			r.Get("/profile", accountH.Profile)
			r.Put("/profile/language", accountH.UpdateLanguage)
			r.Post("/api-keys", accountH.UpdateAPIKeys)

			r.Post("/analyze-file", docH.AnalyzeFile)
			r.Get("/analysis-history", docH.History)
		})
	})

	return r
}
