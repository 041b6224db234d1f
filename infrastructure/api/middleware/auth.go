package middleware

import (
	"crypto/subtle"
	"net/http"
)

// apiKeyHeader carries the API key on protected requests.
const apiKeyHeader = "X-API-KEY"

// AuthConfig holds API-key authentication settings. With no keys
// configured, authentication is disabled and every request passes.
type AuthConfig struct {
	keys []string
}

// NewAuthConfigWithKeys creates an AuthConfig with the given keys.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	ks := make([]string, len(keys))
	copy(ks, keys)
	return AuthConfig{keys: ks}
}

// Enabled reports whether any key is configured.
func (c AuthConfig) Enabled() bool { return len(c.keys) > 0 }

// validKey reports whether the presented key matches a configured key.
func (c AuthConfig) validKey(presented string) bool {
	for _, key := range c.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect returns a middleware that requires a valid API key on
// mutating methods (POST, PUT, PATCH, DELETE). Safe methods always pass.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !config.validKey(r.Header.Get(apiKeyHeader)) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtectAuth is a convenience wrapper over WriteProtect taking raw
// keys.
func WriteProtectAuth(keys []string) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(keys))
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
