package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"github.com/mestero/estimate-api/internal/config"
)

// APIKey guards the API with a static key from the X-API-Key header.
// Disabled when no key is configured, which is the development default.
func APIKey(cfg *config.ApiKeyConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Value)) != 1 {
				logger.Warn("invalid api key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"Missing or invalid API key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
