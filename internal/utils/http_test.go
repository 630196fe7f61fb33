package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popstack/internal/debounce"
	"popstack/internal/remote"
	"popstack/internal/services"
	"popstack/internal/types"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", services.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrNotFound), http.StatusNotFound, "not_found"},
		{"already requested", services.ErrAlreadyRequested, http.StatusConflict, "already_requested"},
		{"already friends", services.ErrAlreadyFriends, http.StatusConflict, "already_friends"},
		{"username taken", services.ErrUsernameTaken, http.StatusConflict, "username_taken"},
		{"superseded", debounce.ErrSuperseded, http.StatusConflict, "superseded"},
		{"self", services.ErrSelfFriendship, http.StatusBadRequest, "self_friendship"},
		{"invalid", services.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"catalog", services.ErrCatalogUnavailable, http.StatusServiceUnavailable, "catalog_unavailable"},
		{"store transport", &remote.Error{Kind: remote.ErrorTransport, Message: "dial"}, http.StatusBadGateway, "store_unreachable"},
		{"store remote", fmt.Errorf("save: %w", &remote.Error{Kind: remote.ErrorRemote, Code: remote.CodeCheckViolation}), http.StatusBadGateway, "store_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Status(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)

	RespondError(w, r, errors.New("connection string leaked"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
	assert.Equal(t, "internal", body.Code)
}

func TestRespondErrorHidesServerFailureDetails(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"catalog", fmt.Errorf("%w: tmdb: dial tcp 10.0.0.7:443", services.ErrCatalogUnavailable), http.StatusServiceUnavailable, "catalog provider unavailable"},
		{"store transport", &remote.Error{Kind: remote.ErrorTransport, Message: "dial tcp db.internal:5432: connection refused"}, http.StatusBadGateway, "data store unreachable"},
		{"store remote", &remote.Error{Kind: remote.ErrorRemote, Code: remote.CodeCheckViolation, Message: `new row violates check constraint "reviews_rating_check"`}, http.StatusBadGateway, "data store error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondError(w, httptest.NewRequest(http.MethodGet, "/api/reviews", nil), tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestCatalogFailureDoesNotLeakProviderKey(t *testing.T) {
	const key = "SECRET-RAWG-KEY"
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := services.NewRAWGClient(services.RAWGOptions{APIKey: key, BaseURL: baseURL}, zerolog.Nop())
	_, err := client.Search(context.Background(), types.MediaGame, "zelda", 1)
	require.ErrorIs(t, err, services.ErrCatalogUnavailable)
	assert.NotContains(t, err.Error(), key)

	w := httptest.NewRecorder()
	RespondError(w, httptest.NewRequest(http.MethodGet, "/api/catalog/game/search?q=zelda", nil), err)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), key)
}

func TestDecodeJSONValidates(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	var p payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
	require.NoError(t, DecodeJSON(r, &p))
	assert.Equal(t, "ok", p.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	status, _ := Status(DecodeJSON(r, &p))
	assert.Equal(t, http.StatusBadRequest, status)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.ErrorIs(t, DecodeJSON(r, &p), services.ErrInvalidInput)
}

func TestGetPathParamInt(t *testing.T) {
	withParam := func(v string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", v)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	n, err := GetPathParamInt(withParam("550"), "id")
	require.NoError(t, err)
	assert.Equal(t, 550, n)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := GetPathParamInt(withParam(bad), "id")
		assert.ErrorIs(t, err, services.ErrInvalidInput, bad)
	}
}

func TestQueryParamDefaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&rating=x&q=dune", nil)
	assert.Equal(t, 3, GetQueryParamInt(r, "page", 1))
	assert.Equal(t, 1, GetQueryParamInt(r, "missing", 1))
	assert.Equal(t, 7.5, GetQueryParamFloat(r, "rating", 7.5))
	assert.Equal(t, "dune", GetQueryParam(r, "q", ""))
	assert.Equal(t, "week", GetQueryParam(r, "window", "week"))
}
