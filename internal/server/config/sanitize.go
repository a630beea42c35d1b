package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)
	sanitized.Server.TrustedProxies = append([]string(nil), cfg.Server.TrustedProxies...)

	sanitized.Auth.SecretKey = maskSecret(sanitized.Auth.SecretKey)
	sanitized.Mail.Password = maskSecret(sanitized.Mail.Password)
	sanitized.Cache.RedisPassword = maskSecret(sanitized.Cache.RedisPassword)
	sanitized.Cache.EncryptionKey = maskSecret(sanitized.Cache.EncryptionKey)
	sanitized.Storage.DSN = maskDSN(sanitized.Storage.DSN)

	return &sanitized
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskDSN hides the password of a URL-style or key=value connection string.
func maskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			// Redacted keeps the mask out of userinfo escaping.
			return strings.Replace(u.Redacted(), ":xxxxx@", ":****@", 1)
		}
		return dsn
	}
	if !strings.Contains(strings.ToLower(dsn), "password=") {
		return dsn
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
