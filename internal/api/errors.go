package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dharsanguruparan/InsightDrop/internal/auth"
	"github.com/dharsanguruparan/InsightDrop/internal/extract"
	"github.com/dharsanguruparan/InsightDrop/internal/format"
	"github.com/dharsanguruparan/InsightDrop/internal/processing"
	"github.com/dharsanguruparan/InsightDrop/internal/report"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
	"github.com/dharsanguruparan/InsightDrop/internal/signing"
	"github.com/dharsanguruparan/InsightDrop/internal/validation"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newBadRequestError(message string, cause error) *APIError {
	err := &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

var (
	errUnauthorized = &APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	errForbidden    = &APIError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "you do not have access to this resource"}
)

// classify maps domain errors onto HTTP responses.
func classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "file too large", Details: fmt.Sprintf("maximum request size is %d bytes", maxBytes.Limit)}
	case errors.Is(err, validation.ErrValidation):
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "upload rejected", Details: err.Error()}
	case errors.Is(err, format.ErrUnsupportedFormat):
		return &APIError{Status: http.StatusUnsupportedMediaType, Code: "UNSUPPORTED_FORMAT", Message: "file format is not supported", Details: err.Error()}
	case errors.Is(err, extract.ErrEmptyContent):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "EMPTY_CONTENT", Message: "file has no content", Details: err.Error()}
	case errors.Is(err, extract.ErrParseFailure):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "PARSE_FAILURE", Message: "file could not be parsed", Details: err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, auth.ErrInvalidToken):
		return errUnauthorized
	case errors.Is(err, auth.ErrOAuthDisabled):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "OAUTH_DISABLED", Message: err.Error()}
	case errors.Is(err, auth.ErrOAuthFailed):
		return &APIError{Status: http.StatusUnauthorized, Code: "OAUTH_FAILED", Message: "github sign-in failed"}
	case errors.Is(err, signing.ErrExpired):
		return &APIError{Status: http.StatusForbidden, Code: "LINK_EXPIRED", Message: "export link has expired"}
	case errors.Is(err, signing.ErrInvalidSignature):
		return &APIError{Status: http.StatusForbidden, Code: "INVALID_SIGNATURE", Message: "export link is not valid"}
	case errors.Is(err, processing.ErrQueueFull):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE", Message: "analysis queue is full, try again later"}
	case errors.Is(err, report.ErrPersistFailure):
		return &APIError{Status: http.StatusInternalServerError, Code: "PERSIST_FAILURE", Message: "report could not be saved"}
	}
	return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := classify(err)
	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if s.cfg.IsDevelopment() && apiErr.Details == "" {
			cp := *apiErr
			cp.Details = err.Error()
			apiErr = &cp
		}
	}
	respondJSON(w, apiErr.Status, apiErr)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return newBadRequestError("invalid JSON body", err)
	}
	return nil
}
