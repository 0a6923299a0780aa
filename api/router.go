// Package api exposes the scheduling engine as a JSON API under /api/v1.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/ledger"
	"github.com/kilianp07/fleetops/core/lines"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/planning"
	"github.com/kilianp07/fleetops/core/store"
	"github.com/kilianp07/fleetops/core/templates"
	"github.com/kilianp07/fleetops/core/trips"
	infralogger "github.com/kilianp07/fleetops/infra/logger"
)

// Services groups what the handlers call.
type Services struct {
	Store        store.Store
	Availability *availability.Service
	Planning     *planning.Generator
	Lines        *lines.Service
	Trips        *trips.Service
	Ledger       *ledger.Service
	Templates    *templates.Service
}

// Options tunes the router.
type Options struct {
	// Token guards /api/v1 when non-empty.
	Token       string
	CORSOrigins []string
	// Metrics is mounted at MetricsPath outside the token check.
	Metrics     http.Handler
	MetricsPath string
	// Location resolves "today" for date parameters left empty.
	Location *time.Location
	Logger   logger.Logger
}

type handler struct {
	svc Services
	loc *time.Location
	log logger.Logger
}

// NewRouter builds the HTTP surface.
func NewRouter(svc Services, opts Options) http.Handler {
	h := &handler{svc: svc, loc: opts.Location, log: infralogger.OrNop(opts.Logger)}
	if h.loc == nil {
		h.loc = time.Local
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(reportPanics)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderActor, middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.health)
	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bearer(opts.Token))
		r.Use(requireActor)

		r.Route("/availability", func(r chi.Router) {
			r.Get("/drivers/{id}", h.driverAvailability)
			r.Get("/tractors/{id}", h.tractorAvailability)
			r.Get("/pool", h.pool)
			r.Get("/rest-days", h.restDays)
		})
		r.Get("/tractors/loose", h.looseTractors)
		r.Post("/rests", h.startRest)
		r.Post("/rests/{id}/finish", h.finishRest)
		r.Post("/maintenance", h.startMaintenance)
		r.Post("/maintenance/{id}/finish", h.finishMaintenance)
		r.Put("/drivers/{id}/tractor", h.bindTractor)
		r.Get("/resource-events", h.resourceEvents)

		r.Route("/plan", func(r chi.Router) {
			r.Post("/generate", h.generate)
			r.Get("/week", h.week)
			r.Get("/week/counters", h.weekCounters)
			r.Post("/week/freeze", h.freezeWeek)
			r.Get("/week/locked", h.weekLocked)
		})

		r.Route("/lines", func(r chi.Router) {
			r.Get("/", h.listLines)
			r.Post("/", h.createOffPlan)
			r.Get("/kpis", h.lineKPIs)
			r.Get("/pending", h.pendingLines)
			r.Get("/{id}", h.getLine)
			r.Patch("/{id}", h.updateLine)
			r.Delete("/{id}", h.deleteLine)
			r.Post("/{id}/confirm", h.confirmLine)
			r.Post("/{id}/cancel", h.cancelLine)
			r.Post("/{id}/trip", h.generateTrip)
		})

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", h.listTrips)
			r.Get("/{id}", h.getTrip)
			r.Post("/{id}/finalize", h.finalizeTrip)
			r.Post("/{id}/events", h.recordEvent)
			r.Get("/{id}/events", h.tripEvents)
			r.Get("/{id}/delays", h.tripDelays)
		})
		r.Get("/events", h.searchEvents)
		r.Get("/delays/daily", h.dailyDelays)
		r.Get("/delays/clients", h.clientDelays)

		r.Get("/deviation/daily", h.deviationDaily)
		r.Get("/deviation/weekly", h.deviationWeekly)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.listTemplates)
			r.Post("/", h.createTemplate)
			r.Get("/{id}", h.getTemplate)
			r.Delete("/{id}", h.deactivateTemplate)
		})

		r.Get("/agenda", h.agenda)
		r.Get("/export/{kind}", h.export)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Store.ListDrivers(r.Context(), true); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) today() model.Date { return today(h.loc) }

// fail logs unexpected errors before answering.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusOf(err) == http.StatusInternalServerError {
		h.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, r, err)
}
