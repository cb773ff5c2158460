// Package server provides the HTTP service that lists plans and streams
// their filled workbooks.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/graest/orcamento/internal/export"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"
	"github.com/graest/orcamento/internal/store"
	"github.com/graest/orcamento/internal/workbook"
)

// Plans is the read side of the plan store.
type Plans interface {
	export.Plans
	List(ctx context.Context) ([]store.PlanInfo, error)
	Exports(ctx context.Context, planID string) ([]store.ExportRecord, error)
}

// Config controls the service runtime behavior.
type Config struct {
	Addr         string
	TemplatePath string
	Plans        Plans
	Logger       *slog.Logger
}

// Status is served at /v1/status.
type Status struct {
	StartedAt    time.Time `json:"started_at"`
	Template     string    `json:"template"`
	Exports      int64     `json:"exports"`
	Failures     int64     `json:"failures"`
	LastExportAt time.Time `json:"last_export_at,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// PlanView is served at /v1/plans/{id}.
type PlanView struct {
	Plan     *model.Snapshot      `json:"plan"`
	Summary  pipeline.Summary     `json:"summary"`
	Schedule pipeline.Schedule    `json:"schedule"`
	Exports  []store.ExportRecord `json:"exports"`
}

// Service provides the export HTTP API.
type Service struct {
	cfg      Config
	log      *slog.Logger
	exporter *export.Exporter

	mu           sync.RWMutex
	startedAt    time.Time
	exports      int64
	failures     int64
	lastExportAt time.Time
	lastError    string
}

// New returns a new service with the provided config.
func New(cfg Config) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8740"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		cfg: cfg,
		log: log,
		exporter: &export.Exporter{
			Plans:        cfg.Plans,
			TemplatePath: cfg.TemplatePath,
			Logger:       log,
		},
		startedAt: time.Now(),
	}
}

// Handler returns the service routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/plans", s.handleList)
	mux.HandleFunc("GET /v1/plans/{id}", s.handlePlan)
	mux.HandleFunc("GET /v1/plans/{id}/xlsx", s.handleWorkbook)
	return mux
}

// Run serves HTTP until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", "addr", s.cfg.Addr, "template", s.cfg.TemplatePath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:    s.startedAt,
		Template:     s.cfg.TemplatePath,
		Exports:      s.exports,
		Failures:     s.failures,
		LastExportAt: s.lastExportAt,
		LastError:    s.lastError,
	}
}

func (s *Service) recordResult(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures++
		s.lastError = err.Error()
		return
	}
	s.exports++
	s.lastExportAt = time.Now()
	s.lastError = ""
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.cfg.Plans.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if plans == nil {
		plans = []store.PlanInfo{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Service) handlePlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.cfg.Plans.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pipeline.Prepare(p)
	history, err := s.cfg.Plans.Exports(r.Context(), p.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if history == nil {
		history = []store.ExportRecord{}
	}
	writeJSON(w, http.StatusOK, PlanView{
		Plan:     p,
		Summary:  pipeline.Summarize(p),
		Schedule: pipeline.BuildSchedule(p),
		Exports:  history,
	})
}

func (s *Service) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	res, err := s.exporter.Export(r.Context(), r.PathValue("id"))
	if !errors.Is(err, store.ErrNotFound) {
		s.recordResult(err)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	s.log.Error("request failed", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
