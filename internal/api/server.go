// Package api exposes projects, uploads and reports over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dharsanguruparan/InsightDrop/internal/auth"
	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/insight"
	"github.com/dharsanguruparan/InsightDrop/internal/middleware"
	"github.com/dharsanguruparan/InsightDrop/internal/pipeline"
	"github.com/dharsanguruparan/InsightDrop/internal/queue"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
	"github.com/dharsanguruparan/InsightDrop/internal/signing"
	"github.com/dharsanguruparan/InsightDrop/internal/storage"
)

type Deps struct {
	Config     *config.Config
	Users      repository.UserRepository
	Projects   repository.ProjectRepository
	Files      repository.FileRepository
	Reports    repository.ReportRepository
	Blobs      storage.BlobStore
	Pipeline   *pipeline.Pipeline
	Aggregator *insight.Aggregator
	Auth       *auth.Service
	Signer     *signing.Signer
	// Dispatcher receives uploads for background analysis. Nil analyzes
	// within the upload request.
	Dispatcher queue.Dispatcher
}

// Server exposes HTTP endpoints for projects, uploads and reports.
type Server struct {
	cfg        *config.Config
	users      repository.UserRepository
	projects   repository.ProjectRepository
	files      repository.FileRepository
	reports    repository.ReportRepository
	blobs      storage.BlobStore
	pipeline   *pipeline.Pipeline
	aggregator *insight.Aggregator
	auth       *auth.Service
	signer     *signing.Signer
	dispatcher queue.Dispatcher

	server *http.Server
	once   sync.Once
}

func New(d Deps) *Server {
	return &Server{
		cfg:        d.Config,
		users:      d.Users,
		projects:   d.Projects,
		files:      d.Files,
		reports:    d.Reports,
		blobs:      d.Blobs,
		pipeline:   d.Pipeline,
		aggregator: d.Aggregator,
		auth:       d.Auth,
		signer:     d.Signer,
		dispatcher: d.Dispatcher,
	}
}

// Handler returns the routed handler wrapped in the middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /auth/github", s.handleGitHubLogin)
	mux.HandleFunc("GET /auth/github/callback", s.handleGitHubCallback)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /projects", s.requireAuth(s.handleListProjects))
	mux.HandleFunc("POST /projects", s.requireAuth(s.handleCreateProject))
	mux.HandleFunc("GET /projects/{id}", s.requireAuth(s.handleGetProject))
	mux.HandleFunc("PATCH /projects/{id}", s.requireAuth(s.handleUpdateProject))
	mux.HandleFunc("DELETE /projects/{id}", s.requireAuth(s.handleDeleteProject))

	mux.HandleFunc("POST /projects/{id}/files", s.requireAuth(s.handleUpload))
	mux.HandleFunc("GET /projects/{id}/files", s.requireAuth(s.handleListFiles))
	mux.HandleFunc("DELETE /files/{id}", s.requireAuth(s.handleDeleteFile))
	mux.HandleFunc("GET /files/{id}/url", s.requireAuth(s.handleFileURL))

	mux.HandleFunc("GET /projects/{id}/reports", s.requireAuth(s.handleListProjectReports))
	mux.HandleFunc("GET /reports", s.requireAuth(s.handleReportHistory))
	mux.HandleFunc("GET /reports/{id}", s.requireAuth(s.handleGetReport))
	mux.HandleFunc("GET /reports/{id}/pdf", s.requireAuth(s.handleReportPDF))
	mux.HandleFunc("POST /reports/{id}/export-url", s.requireAuth(s.handleExportURL))
	mux.HandleFunc("POST /reports/{id}/ask", s.requireAuth(s.handleAsk))
	mux.HandleFunc("GET /exports/report", s.handleSignedExport)

	mux.HandleFunc("GET /admin/users", s.requireAdmin(s.handleListUsers))
	mux.HandleFunc("PATCH /admin/users/{id}/role", s.requireAdmin(s.handleUpdateRole))

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.CORS(s.cfg.CORSOrigins),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.cfg.Address,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	slog.Info("api listening", "address", s.cfg.Address, "analysis_mode", string(s.cfg.AnalysisMode), "remote_insights", s.aggregator.Remote())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
