package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenValidator exchanges a bearer token for a user id. Implemented by
// auth.Client against the auth service.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// BearerAuth guards REST endpoints: it requires an `Authorization: Bearer`
// header, validates the token against the credential validator and binds the
// principal to the request context.
func BearerAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			userID, err := validator.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an `Authorization: Bearer <token>`
// header. Absent or malformed headers report false.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authz, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", false
	}
	return token, true
}
