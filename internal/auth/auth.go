// Package auth signs users in with GitHub and keeps them signed in with a JWT
// cookie.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
)

const (
	TokenCookie = "auth_token"
	StateCookie = "oauth_state"

	defaultAPIBaseURL = "https://api.github.com"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrOAuthDisabled = errors.New("github sign-in is not configured")
	ErrOAuthFailed   = errors.New("github sign-in failed")
)

type Options struct {
	JWTSecret          []byte
	JWTExpiry          time.Duration
	Production         bool
	AdminLogins        []string
	GitHubClientID     string
	GitHubClientSecret string
	// RedirectURL is the absolute URL of the callback route.
	RedirectURL string
	// Endpoint and APIBaseURL default to github.com.
	Endpoint   oauth2.Endpoint
	APIBaseURL string
}

type Service struct {
	users       repository.UserRepository
	jwtSecret   []byte
	jwtExpiry   time.Duration
	production  bool
	adminLogins []string
	oauth       *oauth2.Config
	apiBaseURL  string
}

func NewService(users repository.UserRepository, opts Options) *Service {
	endpoint := opts.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = github.Endpoint
	}
	apiBase := strings.TrimRight(opts.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	admins := make([]string, 0, len(opts.AdminLogins))
	for _, login := range opts.AdminLogins {
		admins = append(admins, strings.ToLower(login))
	}
	s := &Service{
		users:       users,
		jwtSecret:   opts.JWTSecret,
		jwtExpiry:   opts.JWTExpiry,
		production:  opts.Production,
		adminLogins: admins,
		apiBaseURL:  apiBase,
	}
	if opts.GitHubClientID != "" {
		s.oauth = &oauth2.Config{
			ClientID:     opts.GitHubClientID,
			ClientSecret: opts.GitHubClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		}
	}
	return s
}

func (s *Service) OAuthEnabled() bool {
	return s.oauth != nil
}

// AuthCodeURL returns the GitHub consent URL for state.
func (s *Service) AuthCodeURL(state string) (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthDisabled
	}
	return s.oauth.AuthCodeURL(state), nil
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// CompleteGitHubLogin exchanges code for a token, reads the GitHub profile and
// upserts the matching user.
func (s *Service) CompleteGitHubLogin(ctx context.Context, code string) (*model.User, error) {
	if s.oauth == nil {
		return nil, ErrOAuthDisabled
	}
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %w", ErrOAuthFailed, err)
	}
	client := s.oauth.Client(ctx, token)

	var gh githubUser
	if err := s.getJSON(ctx, client, "/user", &gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 || gh.Login == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrOAuthFailed)
	}

	// The profile email is empty when the user keeps it private.
	if gh.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := s.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			slog.Warn("failed to read github emails", "login", gh.Login, "error", err)
		}
		for _, e := range emails {
			if e.Primary {
				gh.Email = e.Email
				break
			}
		}
	}

	user := &model.User{
		GitHubID:  gh.ID,
		Login:     gh.Login,
		Email:     gh.Email,
		Name:      gh.Name,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	if user.Role != model.RoleAdmin && slices.Contains(s.adminLogins, strings.ToLower(user.Login)) {
		promoted, err := s.users.UpdateRole(ctx, user.ID, model.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		user = promoted
	}
	slog.Info("user signed in with github", "user_id", user.ID, "login", user.Login)
	return user, nil
}

func (s *Service) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %w", ErrOAuthFailed, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: get %s: status %d", ErrOAuthFailed, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrOAuthFailed, path, err)
	}
	return nil
}

// GenerateJWT signs a session token for user and returns its expiry.
func (s *Service) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// VerifyJWT returns the user id carried by a valid token.
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// Authenticate resolves the user behind a request's cookie or bearer token.
func (s *Service) Authenticate(ctx context.Context, r *http.Request) (*model.User, error) {
	token := bearerToken(r)
	if token == "" {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil {
			return nil, ErrInvalidToken
		}
		token = cookie.Value
	}
	userID, err := s.VerifyJWT(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Service) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetStateCookie stores a fresh OAuth state and returns it.
func (s *Service) SetStateCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return state, nil
}

// CheckState compares the callback state with the cookie and clears it.
func (s *Service) CheckState(w http.ResponseWriter, r *http.Request) bool {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(StateCookie)
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Value: "", Path: "/", MaxAge: -1})
	return err == nil && state != "" && cookie.Value == state
}
