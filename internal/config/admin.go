// Package config provides admin secret configuration.
package config

import (
	"crypto/subtle"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// AdminConfig holds the shared secret guarding admin endpoints.
type AdminConfig struct {
	secret string
}

// NewAdminConfig reads ADMIN_PASSWORD. The value may be plain text or a bcrypt hash.
func NewAdminConfig() *AdminConfig {
	return NewAdminConfigFromSecret(os.Getenv("ADMIN_PASSWORD"))
}

// NewAdminConfigFromSecret builds an AdminConfig from an explicit secret.
func NewAdminConfigFromSecret(secret string) *AdminConfig {
	return &AdminConfig{secret: strings.TrimSpace(secret)}
}

// Enabled reports whether a secret is configured. Without one every admin request is rejected.
func (c *AdminConfig) Enabled() bool {
	return c != nil && c.secret != ""
}

// IsHashed reports whether the secret is stored as a bcrypt hash.
func (c *AdminConfig) IsHashed() bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(c.secret, p) {
			return true
		}
	}
	return false
}

// VerifyPassword checks a submitted password against the configured secret.
func (c *AdminConfig) VerifyPassword(password string) bool {
	if !c.Enabled() || password == "" {
		return false
	}
	if c.IsHashed() {
		return bcrypt.CompareHashAndPassword([]byte(c.secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(c.secret), []byte(password)) == 1
}
