// ABOUTME: Local HTTP JSON API for the browser-extension collaborators
// ABOUTME: Serves pipeline reads and mutations on localhost plus /healthz and /metrics
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/query"
	"github.com/harperreed/outreach/tracker"
)

const maxBodySize = 5 << 20 // 5MB

type Server struct {
	tracker        *tracker.Tracker
	logger         *zap.Logger
	gatherer       prometheus.Gatherer
	pageSize       int
	allowedOrigins []string
	router         chi.Router
}

// Options configures the HTTP server. A nil Gatherer disables /metrics.
// AllowedOrigins lists the browser origins (e.g. chrome-extension://<id>)
// that may call /api; with none, only clients that send no Origin can.
type Options struct {
	Logger         *zap.Logger
	Gatherer       prometheus.Gatherer
	PageSize       int
	AllowedOrigins []string
}

func NewServer(tr *tracker.Tracker, opts Options) *Server {
	s := &Server{
		tracker:        tr,
		logger:         opts.Logger,
		gatherer:       opts.Gatherer,
		pageSize:       opts.PageSize,
		allowedOrigins: opts.AllowedOrigins,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.router = s.routes()
	return s
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.originGuard)
		r.Use(s.cors())

		r.Get("/connections", s.handleConnections)
		r.Delete("/connections", s.handleDelete)
		r.Get("/stats", s.handleStats)
		r.Get("/followups", s.handleFollowUps)
		r.Get("/stages", s.handleStages)
		r.Get("/export", s.handleExport)

		r.Post("/scan", s.handleScan)
		r.Post("/outreach", s.handleOutreach)
		r.Post("/manual", s.handleManual)
		r.Post("/stage", s.handleStage)
		r.Post("/sweep", s.handleSweep)
		r.Post("/clear", s.handleClear)
	})
	return r
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": s.tracker.Snapshot().Len(),
	})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	res, err := query.Run(s.tracker.Snapshot(), query.Params{
		Tab:      query.Tab(q.Get("tab")),
		Search:   q.Get("search"),
		Sort:     query.SortKey(q.Get("sort")),
		Order:    query.Order(q.Get("order")),
		Page:     page,
		PageSize: s.pageSize,
	}, s.tracker.Now())
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, query.ComputeStats(s.tracker.Snapshot(), s.tracker.Now()))
}

func (s *Server) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	if !s.refresh(w, r) {
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	window := time.Duration(days) * 24 * time.Hour
	writeJSON(w, http.StatusOK, query.UpcomingFollowUps(s.tracker.Snapshot(), s.tracker.Now(), window, limit))
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StageGraph())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.tracker.Export(r.Context())
	if err != nil {
		s.storageError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", models.ExportFileName(doc.ExportDate)))
	writeJSON(w, http.StatusOK, doc)
}

type scanRequest struct {
	Connections []models.RawObservation `json:"connections"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decode(w, r, &req) {
		return
	}
	report, err := s.tracker.Reconcile(r.Context(), req.Connections)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	var in models.ContactInput
	if !decode(w, r, &in) {
		return
	}
	outcome, err := s.tracker.RecordOutreachSent(r.Context(), in)
	s.writeOutcome(w, outcome, in.ProfileID, err)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	var in models.ContactInput
	if !decode(w, r, &in) {
		return
	}
	outcome, err := s.tracker.RequestManualAdd(r.Context(), in)
	s.writeOutcome(w, outcome, in.ProfileID, err)
}

type stageRequest struct {
	ProfileID string       `json:"profileUrl"`
	Stage     models.Stage `json:"stage"`
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if !decode(w, r, &req) {
		return
	}
	outcome, err := s.tracker.AdvanceStage(r.Context(), req.ProfileID, req.Stage)
	s.writeOutcome(w, outcome, req.ProfileID, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("profileUrl")
	if id == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "profileUrl is required")
		return
	}
	outcome, err := s.tracker.DeleteRecord(r.Context(), id)
	s.writeOutcome(w, outcome, id, err)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.Sweep(r.Context())
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	removed, err := s.tracker.Clear(r.Context())
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) bool {
	if err := s.tracker.Refresh(r.Context()); err != nil {
		s.storageError(w, err)
		return false
	}
	return true
}

func (s *Server) writeOutcome(w http.ResponseWriter, outcome tracker.Outcome, profileID string, err error) {
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, outcomeStatus(outcome), map[string]string{
		"outcome": string(outcome),
		"message": outcome.Message(profileID),
	})
}

func outcomeStatus(o tracker.Outcome) int {
	switch o {
	case tracker.OutcomeApplied:
		return http.StatusOK
	case tracker.OutcomeNotFound:
		return http.StatusNotFound
	case tracker.OutcomeAlreadyTracked, tracker.OutcomeIllegalTransition:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) storageError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	if errors.Is(err, tracker.ErrStorageUnavailable) {
		httpError(w, http.StatusServiceUnavailable, "storage_unavailable", "%v", err)
		return
	}
	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
