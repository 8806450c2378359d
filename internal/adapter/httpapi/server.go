// Package httpapi exposes the directory, events, facets, and admin
// endpoints, plus the standard health and metrics routes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/openmat/matdir/internal/adapter/github"
	"github.com/openmat/matdir/internal/dataset"
	"github.com/openmat/matdir/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Deps are the collaborators the server fronts. Admin nil disables the admin
// routes entirely.
type Deps struct {
	Data     *dataset.Store
	Resolver domain.LocationResolver
	Admin    *github.Service
	Logger   *slog.Logger

	// AdminRatePerMinute throttles admin commits across all callers.
	// Zero means the default of 6.
	AdminRatePerMinute int
}

// Server routes API traffic to the dataset, resolver, and admin service.
type Server struct {
	httpServer *http.Server
	deps       Deps
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewServer creates the API server on addr.
func NewServer(addr string, deps Deps) *Server {
	perMinute := deps.AdminRatePerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:    deps,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:  deps.Logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(deps.Data))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/directory", s.handleDirectory)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/facets", s.handleFacets)

	if deps.Admin != nil {
		mux.HandleFunc("POST /api/admin/events", s.handleAdminEvent)
		mux.HandleFunc("POST /api/admin/directory", s.handleAdminDirectory)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// directoryRowView decorates a row with the presentation fields the list
// renders.
type directoryRowView struct {
	domain.DirectoryRow
	New bool `json:"new,omitempty"`
}

type directoryGroupView struct {
	Label string             `json:"label"`
	Rows  []directoryRowView `json:"rows"`
}

type directoryResponse struct {
	Groups         []directoryGroupView `json:"groups"`
	Total          int                  `json:"total"`
	Pending        int                  `json:"pending"`
	DistanceActive bool                 `json:"distance_active"`
}

// handleDirectory serves the filtered, grouped directory. Query params: q,
// state (repeatable), dropin, zip, radius. A pending geocode shows up in the
// response's pending count; clients re-poll until it reaches zero.
func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	snap := s.deps.Data.Snapshot()

	rows := domain.FilterDirectory(snap.Directory, domain.DirectoryFilter{
		Query:  params.Get("q"),
		States: domain.NewStringSet(upperAll(params["state"])...),
		DropIn: domain.NewStringSet(params["dropin"]...),
	})

	radius, _ := strconv.ParseFloat(params.Get("radius"), 64)
	dist := domain.FilterByDistance(rows, params.Get("zip"), radius, s.deps.Resolver, nil)

	today := domain.Today()
	groups := domain.GroupDirectory(dist.Rows)
	view := make([]directoryGroupView, len(groups))
	total := 0
	for i, g := range groups {
		view[i] = directoryGroupView{Label: g.Label, Rows: make([]directoryRowView, len(g.Rows))}
		for j, row := range g.Rows {
			view[i].Rows[j] = directoryRowView{DirectoryRow: row, New: domain.IsNew(row.Created, today)}
		}
		total += len(g.Rows)
	}

	writeJSON(w, http.StatusOK, directoryResponse{
		Groups:         view,
		Total:          total,
		Pending:        dist.Pending,
		DistanceActive: dist.Active,
	})
}

type eventRowView struct {
	domain.EventRow
	DisplayDate string `json:"display_date"`
	New         bool   `json:"new,omitempty"`
}

type eventGroupView struct {
	Label string         `json:"label"`
	Rows  []eventRowView `json:"rows"`
}

type eventsResponse struct {
	Groups []eventGroupView `json:"groups"`
	Total  int              `json:"total"`
}

// handleEvents serves the filtered, month-grouped events list. Query params:
// q, state, year, type (all repeatable except q).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	snap := s.deps.Data.Snapshot()

	rows := domain.FilterEvents(snap.Events, domain.EventFilter{
		Query:  params.Get("q"),
		States: domain.NewStringSet(upperAll(params["state"])...),
		Years:  domain.NewStringSet(params["year"]...),
		Types:  domain.NewStringSet(params["type"]...),
	})

	today := domain.Today()
	groups := domain.GroupEvents(rows, today)
	view := make([]eventGroupView, len(groups))
	total := 0
	for i, g := range groups {
		view[i] = eventGroupView{Label: g.Label, Rows: make([]eventRowView, len(g.Rows))}
		for j, row := range g.Rows {
			view[i].Rows[j] = eventRowView{
				EventRow:    row,
				DisplayDate: domain.DisplayDate(row.Date),
				New:         domain.IsNew(row.Created, today),
			}
		}
		total += len(g.Rows)
	}

	writeJSON(w, http.StatusOK, eventsResponse{Groups: view, Total: total})
}

func (s *Server) handleFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Data.Snapshot().Facets)
}

func (s *Server) handleAdminEvent(w http.ResponseWriter, r *http.Request) {
	var sub github.EventSubmission
	s.handleAdminSubmit(w, r, &sub, func(ctx context.Context, token string) error {
		return s.deps.Admin.SubmitEvent(ctx, token, sub)
	})
}

func (s *Server) handleAdminDirectory(w http.ResponseWriter, r *http.Request) {
	var sub github.DirectorySubmission
	s.handleAdminSubmit(w, r, &sub, func(ctx context.Context, token string) error {
		return s.deps.Admin.SubmitDirectory(ctx, token, sub)
	})
}

// handleAdminSubmit is the shared admin flow: rate limit, bearer token,
// decode, submit, map errors to statuses.
func (s *Server) handleAdminSubmit(w http.ResponseWriter, r *http.Request, sub any, submit func(ctx context.Context, token string) error) {
	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}

	if err := json.NewDecoder(r.Body).Decode(sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	err := submit(r.Context(), token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "committed"})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, github.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token rejected"})
	case errors.Is(err, github.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "file changed upstream, retry"})
	default:
		s.logger.Error("admin commit failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "commit failed"})
	}
}

func isValidationError(err error) bool {
	var verr *github.ValidationError
	return errors.As(err, &verr)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func upperAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
