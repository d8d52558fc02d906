package web

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// authMiddleware enforces basic auth against the configured operator
// credentials. An empty password hash disables auth entirely, for deployments
// that front these endpoints with their own gateway.
func (handler *HttpRouteHandler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if handler.PasswordHash == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || !handler.validCredentials(user, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="scanpipe"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (handler *HttpRouteHandler) validCredentials(user, password string) bool {
	if subtle.ConstantTimeCompare([]byte(user), []byte(handler.User)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(handler.PasswordHash), []byte(password)) == nil
}
