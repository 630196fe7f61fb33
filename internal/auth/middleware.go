package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/rs/zerolog"
)

// CustomClaims contains the profile claims we read from Auth0 tokens.
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// NewAuth0Middleware validates RS256 access tokens against the tenant JWKS.
func NewAuth0Middleware(domain, audience string, logger zerolog.Logger) (Middleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}

	return Auth0(jwtValidator.ValidateToken, logger), nil
}

// Auth0 wraps a token validator in the jwtmiddleware flow and maps the
// validated claims onto a User.
func Auth0(validate jwtmiddleware.ValidateToken, logger zerolog.Logger) Middleware {
	mw := jwtmiddleware.New(validate,
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
			unauthorized(w, "invalid or missing token")
		}),
	)

	return func(next http.Handler) http.Handler {
		return mw.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromClaims(r.Context())
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		}))
	}
}

func userFromClaims(ctx context.Context) (*User, error) {
	claims, ok := ctx.Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		return nil, fmt.Errorf("no claims found in context")
	}

	user := &User{ID: claims.RegisteredClaims.Subject}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		user.Email = custom.Email
		user.Name = custom.Name
	}
	if user.ID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return user, nil
}
