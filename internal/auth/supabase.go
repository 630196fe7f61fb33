package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// SupabaseClaims is the payload of a Supabase session token.
type SupabaseClaims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// NewSupabaseMiddleware verifies HS256 session tokens signed with the
// project JWT secret.
func NewSupabaseMiddleware(secret, audience string, logger zerolog.Logger) Middleware {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			claims := &SupabaseClaims{}
			_, err = parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil })
			if err != nil || claims.Subject == "" {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
				unauthorized(w, "invalid or missing token")
				return
			}

			user := &User{ID: claims.Subject, Email: claims.Email}
			if name, ok := claims.UserMetadata["full_name"].(string); ok {
				user.Name = name
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	return token, nil
}
