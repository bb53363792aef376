package config

import (
	"fmt"
	"strings"
)

// AuthConfig holds the shared-secret API key protecting mutating routes.
type AuthConfig struct {
	Header string `koanf:"header"`
	APIKey string `koanf:"apikey"`
}

// String returns a string representation of the auth configuration with the key masked.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  header: %s\n", c.Header))
	b.WriteString(fmt.Sprintf("  apikey: %s\n", maskSecret(c.APIKey)))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if c.Header == "" {
		return fmt.Errorf("auth header is not configured")
	}
	if c.APIKey == "" {
		return fmt.Errorf("auth API key is not configured")
	}
	return nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}
