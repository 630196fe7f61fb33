package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrNoUser is returned when a request carries no authenticated user.
var ErrNoUser = errors.New("no authenticated user in context")

// User is the authenticated caller. ID is the identity provider subject and
// doubles as the profile id.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Middleware authenticates requests and stores the User in the context.
type Middleware func(http.Handler) http.Handler

type userKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func GetUserFromContext(ctx context.Context) (*User, error) {
	u, ok := ctx.Value(userKey{}).(*User)
	if !ok || u == nil || u.ID == "" {
		return nil, ErrNoUser
	}
	return u, nil
}

// UserID returns the caller id or "" when unauthenticated.
func UserID(ctx context.Context) string {
	u, err := GetUserFromContext(ctx)
	if err != nil {
		return ""
	}
	return u.ID
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": "not_authenticated"})
}
