package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/basket"
	"github.com/healthdesk/scheduler/internal/doctors"
	httpmiddleware "github.com/healthdesk/scheduler/internal/http/middleware"
	"github.com/healthdesk/scheduler/internal/patients"
	"github.com/healthdesk/scheduler/internal/specialties"
	"github.com/healthdesk/scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	AppointmentsHandler *appointments.Handler
	DoctorsHandler      *doctors.Handler
	PatientsHandler     *patients.Handler
	SpecialtiesHandler  *specialties.Handler
	BasketHandler       *basket.Handler

	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// BasketRateLimit caps hold churn per client IP; zero disables limiting.
	BasketRateLimit float64
	BasketBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Hard deletes are admin-only once a secret is configured.
	guard := httpmiddleware.AdminJWT(cfg.AdminAuthSecret)
	adminOnly := func(next http.HandlerFunc) http.HandlerFunc {
		if cfg.AdminAuthSecret == "" {
			return next
		}
		return guard(next).ServeHTTP
	}

	if h := cfg.AppointmentsHandler; h != nil {
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/bookable", h.Bookable)
			r.Get("/conflicts", h.PatientConflicts)
			r.Post("/cancel", h.CancelMany)
			r.Get("/{id}", h.Get)
			r.Patch("/{id}", h.Update)
			r.Post("/{id}/cancel", h.Cancel)
			r.Delete("/{id}", adminOnly(h.Delete))
		})
	}

	if h := cfg.DoctorsHandler; h != nil {
		r.Route("/doctors", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Delete("/{id}", adminOnly(h.Delete))
			r.Get("/{id}/availability", h.GetAvailability)
			r.Put("/{id}/availability", h.UpdateAvailability)
			r.Get("/{id}/schedule", h.Schedule)
			r.Get("/{id}/slots", h.Slot)
		})
	}

	if h := cfg.PatientsHandler; h != nil {
		r.Route("/patients", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Delete("/{id}", adminOnly(h.Delete))
			r.Get("/{id}/appointments", h.Appointments)
		})
	}

	if h := cfg.SpecialtiesHandler; h != nil {
		r.Route("/specialties", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Delete("/{id}", adminOnly(h.Delete))
		})
	}

	if h := cfg.BasketHandler; h != nil {
		r.Route("/basket", func(r chi.Router) {
			if cfg.BasketRateLimit > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.BasketRateLimit, cfg.BasketBurst))
			}
			r.Get("/holds", h.List)
			r.Post("/holds", h.Add)
			r.Delete("/holds/{id}", h.Remove)
			r.Post("/checkout", h.Checkout)
		})
	}

	return r
}
