package auth

import (
	"crypto/subtle"
	"net/http"
)

// Demo signs every request in as the fixed demo user.
func Demo(user User) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := user
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &u)))
		})
	}
}

// DemoCredentials checks the demo sign-in form.
type DemoCredentials struct {
	Email    string
	Password string
	User     User
}

func (c DemoCredentials) Authenticate(email, password string) (*User, bool) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(c.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	if !emailOK || !passOK {
		return nil, false
	}
	u := c.User
	return &u, true
}
