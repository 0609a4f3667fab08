package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/anamnese"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/config"
	httpmiddleware "github.com/integradaneuropsicologia/sistemadeavaliacao/internal/http/middleware"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/link"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/monitor"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/obs"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/service"
)

// Deps reúne os serviços montados em cmd/api.
type Deps struct {
	Config   *config.Config
	Auth     *service.AuthService
	Patients *patient.Controller
	Catalog  *catalog.Loader
	Links    *link.Service
	Anamnese *anamnese.Client
	Monitor  *monitor.Service
	Metrics  *obs.Metrics
	// ReadyChecks são sondados em GET /ready (redis, postgres...).
	ReadyChecks map[string]func(context.Context) error
}

type Handler struct {
	auth     *service.AuthService
	patients *patient.Controller
	catalog  *catalog.Loader
	links    *link.Service
	anamnese *anamnese.Client
	monitor  *monitor.Service
	checks   map[string]func(context.Context) error
}

// NewRouter devolve roteador configurado.
func NewRouter(d Deps) http.Handler {
	h := &Handler{
		auth:     d.Auth,
		patients: d.Patients,
		catalog:  d.Catalog,
		links:    d.Links,
		anamnese: d.Anamnese,
		monitor:  d.Monitor,
		checks:   d.ReadyChecks,
	}
	apiLimiter := httpmiddleware.NewRateLimiter(d.Config.RateLimitPublic.RequestsPerSecond, d.Config.RateLimitPublic.Burst)
	loginLimiter := httpmiddleware.NewRateLimiter(d.Config.RateLimitAuth.RequestsPerSecond, d.Config.RateLimitAuth.Burst)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}
	r.Use(httpmiddleware.CORS(d.Config.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.With(httpmiddleware.IPRateLimit(loginLimiter)).Post("/auth/login", h.Login)

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(d.Auth.JWT(), d.Auth))
		private.Use(httpmiddleware.SessionRateLimit(apiLimiter))

		private.Post("/auth/logout", h.Logout)
		private.Get("/session", h.CurrentSession)
		private.Put("/session/filter", h.SetFilter)

		private.Get("/catalog", h.Catalog)
		private.Post("/catalog/reload", h.ReloadCatalog)

		private.Post("/patients", h.SavePatient)
		private.Route("/patients/{cpf}", func(p chi.Router) {
			p.Get("/", h.LookupPatient)
			p.Post("/link", h.PatientLink)
			p.Get("/anamnese", h.Anamnese)
		})

		private.Get("/phone/format", h.FormatPhone)
		private.Get("/monitor", h.MonitorStatus)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready executa as sondagens de dependências configuradas.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", failed)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
