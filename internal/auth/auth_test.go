package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := GetUserFromContext(r.Context())
		require.NoError(t, err)
		w.Write([]byte(u.ID + "|" + u.Email))
	})
}

func signSupabase(t *testing.T, secret string, claims SupabaseClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestSupabaseMiddleware(t *testing.T) {
	const secret = "super-secret"
	h := NewSupabaseMiddleware(secret, "authenticated", zerolog.Nop())(echoUser(t))

	valid := signSupabase(t, secret, SupabaseClaims{
		Email: "ania@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "user-1|ania@example.com"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + signSupabase(t, "other", SupabaseClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Audience: jwt.ClaimStrings{"authenticated"}},
		}), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signSupabase(t, secret, SupabaseClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				Audience:  jwt.ClaimStrings{"authenticated"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}), http.StatusUnauthorized, ""},
		{"wrong audience", "Bearer " + signSupabase(t, secret, SupabaseClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Audience: jwt.ClaimStrings{"anon"}},
		}), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuth0MapsValidatedClaims(t *testing.T) {
	validate := func(_ context.Context, token string) (any, error) {
		if token != "good" {
			return nil, errors.New("bad token")
		}
		return &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|42"},
			CustomClaims:     &CustomClaims{Email: "tomek@example.com"},
		}, nil
	}
	h := Auth0(validate, zerolog.Nop())(echoUser(t))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth0|42|tomek@example.com", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_authenticated")
}

func TestDemo(t *testing.T) {
	demoUser := User{ID: "demo", Email: "demo@popstack.app"}
	h := Demo(demoUser)(echoUser(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, "demo|demo@popstack.app", rec.Body.String())

	creds := DemoCredentials{Email: "demo@popstack.app", Password: "demo", User: demoUser}
	u, ok := creds.Authenticate("demo@popstack.app", "demo")
	require.True(t, ok)
	assert.Equal(t, "demo", u.ID)

	_, ok = creds.Authenticate("demo@popstack.app", "nope")
	assert.False(t, ok)
}

func TestGetUserFromContextWithoutUser(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Empty(t, UserID(context.Background()))
}
