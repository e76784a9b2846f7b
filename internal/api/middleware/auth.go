package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/projectlens/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

const tokenPrefixLen = 8

// Auth checks webhook bearer tokens against a fixed set of bcrypt hashes.
type Auth struct {
	hashes [][]byte
}

// NewAuth creates a new Auth middleware from bcrypt hashes of the accepted tokens.
func NewAuth(tokenHashes []string) *Auth {
	a := &Auth{}
	for _, h := range tokenHashes {
		a.hashes = append(a.hashes, []byte(h))
	}
	return a
}

// Authenticate validates the Bearer token and stores its prefix in the
// request context for rate limiting and logging.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Missing or invalid Authorization header", nil)
			return
		}

		if len(token) < tokenPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Invalid token format", nil)
			return
		}

		if !a.matches(token) {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Invalid token", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetTokenPrefix(r.Context(), token[:tokenPrefixLen])))
	})
}

func (a *Auth) matches(token string) bool {
	for _, h := range a.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(token)) == nil {
			return true
		}
	}
	return false
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
