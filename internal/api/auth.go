package api

import (
	"log/slog"
	"net/http"

	"github.com/dharsanguruparan/InsightDrop/internal/auth"
	"github.com/dharsanguruparan/InsightDrop/internal/ctxkeys"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.Authenticate(r.Context(), r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxkeys.WithUser(r.Context(), user)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !ctxkeys.User(r.Context()).IsAdmin() {
			respondJSON(w, errForbidden.Status, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if !s.auth.OAuthEnabled() {
		s.respondError(w, r, auth.ErrOAuthDisabled)
		return
	}
	state, err := s.auth.SetStateCookie(w)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	link, err := s.auth.AuthCodeURL(state)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, link, http.StatusTemporaryRedirect)
}

func (s *Server) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if !s.auth.CheckState(w, r) {
		slog.Warn("github oauth state validation failed")
		s.respondError(w, r, newBadRequestError("invalid oauth state", nil))
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		s.respondError(w, r, newBadRequestError("missing oauth code", nil))
		return
	}
	user, err := s.auth.CompleteGitHubLogin(r.Context(), code)
	if err != nil {
		slog.Error("github oauth failed", "error", err)
		s.respondError(w, r, err)
		return
	}
	token, expiry, err := s.auth.GenerateJWT(user)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.auth.SetJWTCookie(w, token, expiry)
	respondJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"token":     token,
		"expiresAt": expiry.UTC(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ctxkeys.User(r.Context()))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if !body.Role.Valid() {
		s.respondError(w, r, newBadRequestError("role must be user or admin", nil))
		return
	}
	user, err := s.users.UpdateRole(r.Context(), r.PathValue("id"), body.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	slog.Info("user role changed", "user_id", user.ID, "role", string(user.Role), "by", ctxkeys.User(r.Context()).ID)
	respondJSON(w, http.StatusOK, user)
}
