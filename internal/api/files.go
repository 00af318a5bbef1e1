package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dharsanguruparan/InsightDrop/internal/ctxkeys"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/pipeline"
	"github.com/dharsanguruparan/InsightDrop/internal/queue"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

const maxTitleLength = 200

// loadFile returns the file when the caller may access its project.
func (s *Server) loadFile(ctx context.Context, id string) (*model.UploadedFile, error) {
	file, err := s.files.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadProject(ctx, file.ProjectID); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := s.loadProject(ctx, r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, newBadRequestError("expecting multipart form", err))
		return
	}
	part, title, err := nextFilePart(mr)
	if err != nil {
		s.respondError(w, r, newBadRequestError("invalid upload form", err))
		return
	}
	defer part.Close()

	// One byte past the limit is enough for validation to reject the file.
	data, err := io.ReadAll(io.LimitReader(part, s.cfg.MaxFileSize+1))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	name := filepath.Base(part.FileName())
	if name == "." || name == "/" {
		name = "upload"
	}
	up := pipeline.Upload{
		ProjectID:   project.ID,
		UserID:      ctxkeys.User(ctx).ID,
		Name:        name,
		ContentType: partContentType(part, name),
		Title:       title,
		Data:        data,
	}

	if s.dispatcher == nil {
		s.analyzeInline(w, r, up)
		return
	}
	s.analyzeLater(w, r, up)
}

func (s *Server) analyzeInline(w http.ResponseWriter, r *http.Request, up pipeline.Upload) {
	res, err := s.pipeline.Run(r.Context(), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"file":   res.File,
		"report": res.Report,
	})
}

func (s *Server) analyzeLater(w http.ResponseWriter, r *http.Request, up pipeline.Upload) {
	ctx := r.Context()
	file, err := s.pipeline.Ingest(ctx, up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	payload := queue.GenerateReportPayload{FileID: file.ID, UserID: up.UserID}
	if err := s.dispatcher.Dispatch(ctx, payload); err != nil {
		slog.Error("dispatch analysis", "file_id", file.ID, "error", err)
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"file":   file,
		"status": "queued",
	})
}

// partContentType prefers the declared type and falls back to the extension.
func partContentType(part *multipart.Part, name string) string {
	ct := part.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			return byExt
		}
	}
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

// nextFilePart advances to the "file" part. A "title" field sent before it
// is returned alongside; other fields are skipped.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, string, error) {
	var title string
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, "", fmt.Errorf("no part named %q", "file")
			}
			return nil, "", err
		}
		switch part.FormName() {
		case "file":
			return part, title, nil
		case "title":
			raw, err := io.ReadAll(io.LimitReader(part, maxTitleLength*4+1))
			if err != nil {
				return nil, "", err
			}
			title = strings.TrimSpace(string(raw))
			if utf8.RuneCountInString(title) > maxTitleLength {
				return nil, "", fmt.Errorf("title exceeds %d characters", maxTitleLength)
			}
		}
		part.Close()
	}
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	project, err := s.loadProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	files, err := s.files.ListByProject(r.Context(), project.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, files)
}

// handleDeleteFile removes the record and the stored object. Reports built
// from the file are kept.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, err := s.loadFile(ctx, r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.blobs.Delete(ctx, file.ObjectKey); err != nil {
		slog.Warn("remove object", "file_id", file.ID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFileURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, err := s.loadFile(ctx, r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	link, err := s.blobs.PresignGet(ctx, file.ObjectKey, s.cfg.SignedURLTTL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"url":       link,
		"expiresAt": time.Now().Add(s.cfg.SignedURLTTL).UTC(),
	})
}
