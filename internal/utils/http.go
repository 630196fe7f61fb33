// Package utils holds the request and response helpers shared by the
// handlers.
package utils

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"popstack/internal/debounce"
	"popstack/internal/remote"
	"popstack/internal/services"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// GetPathParam returns a chi URL parameter.
func GetPathParam(r *http.Request, param string) string {
	return chi.URLParam(r, param)
}

// GetPathParamInt parses a chi URL parameter as a positive int.
func GetPathParamInt(r *http.Request, param string) (int, error) {
	value := chi.URLParam(r, param)
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrInvalidInput, param)
	}
	return n, nil
}

// GetQueryParam gets a query parameter with optional default value
func GetQueryParam(r *http.Request, param, defaultValue string) string {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetQueryParamInt gets a query parameter as int with optional default value
func GetQueryParamInt(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetQueryParamFloat gets a query parameter as float64 with optional default value
func GetQueryParamFloat(r *http.Request, param string, defaultValue float64) float64 {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// DecodeJSON reads a JSON body into dst and validates its struct tags.
func DecodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read body", services.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", services.ErrInvalidInput)
	}
	return validate.Struct(dst)
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, data any, statusCode int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Status maps an error onto an HTTP status and a stable error code.
func Status(err error) (int, string) {
	var verrs validator.ValidationErrors
	var rerr *remote.Error

	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_authenticated"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrAlreadyRequested):
		return http.StatusConflict, "already_requested"
	case errors.Is(err, services.ErrAlreadyFriends):
		return http.StatusConflict, "already_friends"
	case errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict, "username_taken"
	case errors.Is(err, debounce.ErrSuperseded):
		return http.StatusConflict, "superseded"
	case errors.Is(err, services.ErrSelfFriendship):
		return http.StatusBadRequest, "self_friendship"
	case errors.Is(err, services.ErrInvalidInput), errors.As(err, &verrs):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, services.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "catalog_unavailable"
	case errors.As(err, &rerr):
		if rerr.Kind == remote.ErrorTransport {
			return http.StatusBadGateway, "store_unreachable"
		}
		return http.StatusBadGateway, "store_error"
	}
	return http.StatusInternalServerError, "internal"
}

// serverMessages are the only bodies sent for server side failures.
var serverMessages = map[string]string{
	"catalog_unavailable": "catalog provider unavailable",
	"store_unreachable":   "data store unreachable",
	"store_error":         "data store error",
	"internal":            "internal server error",
}

// RespondError converts err into a JSON error body. Server side failures
// are logged with the request logger; their details stay out of the body.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	message := err.Error()

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("request failed")
		message = serverMessages[code]
	} else {
		zerolog.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	RespondJSON(w, ErrorResponse{Error: message, Code: code}, status)
}
