package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/InsightDrop/internal/ctxkeys"
	"github.com/dharsanguruparan/InsightDrop/internal/export"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

const maxQuestionLength = 1000

func (s *Server) loadReport(ctx context.Context, id string) (*model.Report, error) {
	rep, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadProject(ctx, rep.ProjectID); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Server) handleListProjectReports(w http.ResponseWriter, r *http.Request) {
	project, err := s.loadProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	reports, err := s.reports.ListByProject(r.Context(), project.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// handleReportHistory lists the reports the caller generated.
func (s *Server) handleReportHistory(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reports.ListByGenerator(r.Context(), ctxkeys.User(r.Context()).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePDF(w, r, rep)
}

func (s *Server) handleExportURL(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	link, expiresAt := s.signer.ExportURL(s.cfg.AppURL, rep.ID, s.cfg.SignedURLTTL)
	respondJSON(w, http.StatusOK, map[string]any{"url": link, "expiresAt": expiresAt})
}

// handleSignedExport serves a report PDF to anyone holding a valid link.
func (s *Server) handleSignedExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if err := s.signer.Verify(id, q.Get("expires"), q.Get("sig")); err != nil {
		s.respondError(w, r, err)
		return
	}
	rep, err := s.reports.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePDF(w, r, rep)
}

func (s *Server) writePDF(w http.ResponseWriter, r *http.Request, rep *model.Report) {
	var buf bytes.Buffer
	if err := export.WriteReportPDF(&buf, rep); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.pdf"`, rep.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleAsk answers a free-form question about a report's stored content.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	rep, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	question := strings.TrimSpace(body.Question)
	if question == "" {
		s.respondError(w, r, newBadRequestError("question is required", nil))
		return
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		s.respondError(w, r, newBadRequestError("question is too long", nil))
		return
	}
	answer, source := s.aggregator.Answer(r.Context(), rep.Content, question)
	respondJSON(w, http.StatusOK, map[string]any{
		"question": question,
		"answer":   answer,
		"source":   source,
	})
}
