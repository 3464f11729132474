package middleware

import (
	"net/http"
	"tracking/internal/api/util"

	"github.com/rs/zerolog"
)

type AuthMiddleware struct {
	secret []byte
	logger zerolog.Logger
}

// NewAuthMiddleware returns a middleware checking HS256 bearer tokens. With
// an empty secret every request is let through.
func NewAuthMiddleware(secret string, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), logger: logger}
}

func (m *AuthMiddleware) Enabled() bool { return len(m.secret) > 0 }

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := util.GetBearerToken(r)
		if err != nil {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := util.ValidateToken(m.secret, token)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
			http.Error(w, "Invalid authorization token", http.StatusUnauthorized)
			return
		}

		m.logger.Debug().Str("subject", claims.Subject).Str("path", r.URL.Path).Msg("token accepted")
		next.ServeHTTP(w, r)
	})
}
