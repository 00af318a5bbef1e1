package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dharsanguruparan/InsightDrop/internal/ctxkeys"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

const maxProjectName = 200

// loadProject returns the project when the caller owns it or is an admin.
func (s *Server) loadProject(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user := ctxkeys.User(ctx)
	if project.OwnerID != user.ID && !user.IsAdmin() {
		return nil, errForbidden
	}
	return project, nil
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.ListByOwner(r.Context(), ctxkeys.User(r.Context()).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func validProjectName(name string) *APIError {
	if name == "" {
		return newBadRequestError("project name is required", nil)
	}
	if len([]rune(name)) > maxProjectName {
		return newBadRequestError("project name is too long", nil)
	}
	return nil
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if apiErr := validProjectName(name); apiErr != nil {
		s.respondError(w, r, apiErr)
		return
	}
	project := &model.Project{
		Name:        name,
		Description: strings.TrimSpace(body.Description),
		OwnerID:     ctxkeys.User(r.Context()).ID,
	}
	if err := s.projects.Create(r.Context(), project); err != nil {
		s.respondError(w, r, err)
		return
	}
	slog.Info("project created", "project_id", project.ID, "owner_id", project.OwnerID)
	respondJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.loadProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.loadProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var update model.ProjectUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		s.respondError(w, r, err)
		return
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if apiErr := validProjectName(name); apiErr != nil {
			s.respondError(w, r, apiErr)
			return
		}
		update.Name = &name
	}
	updated, err := s.projects.Update(r.Context(), project.ID, update)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteProject removes the project with its files and reports, then
// the stored objects.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := s.loadProject(ctx, r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	files, err := s.files.ListByProject(ctx, project.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	for _, f := range files {
		if err := s.blobs.Delete(ctx, f.ObjectKey); err != nil {
			slog.Warn("remove object", "project_id", project.ID, "file_id", f.ID, "error", err)
		}
	}
	slog.Info("project deleted", "project_id", project.ID, "files", len(files))
	w.WriteHeader(http.StatusNoContent)
}
