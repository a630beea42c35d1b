package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// MinSecretKeyLength is the minimum auth.secret_key length in bytes.
const MinSecretKeyLength = 32

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyCache(&cfg.Cache),
		verifyAuth(&cfg.Auth),
		verifyMail(&cfg.Mail),
		verifyAvatar(&cfg.Avatar),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if cfg.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file must be set together"))
	}
	if cfg.PublicURL != "" {
		u, err := url.Parse(cfg.PublicURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.public_url %q must be an absolute http(s) URL", cfg.PublicURL))
		}
	}
	for _, p := range cfg.TrustedProxies {
		if !validProxy(p) {
			errs = append(errs, fmt.Errorf("server.trusted_proxies: %q is not an IP address or CIDR range", p))
		}
	}
	if cfg.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("server.rate_limit.per_second must not be negative"))
	}
	if cfg.RateLimit.PerSecond > 0 && cfg.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("server.rate_limit.burst must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	var errs []error
	switch cfg.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported (sqlite, postgres)", cfg.Driver))
	}
	if cfg.DSN == "" {
		errs = append(errs, errors.New("storage.dsn is required"))
	}
	return errors.Join(errs...)
}

func verifyCache(cfg *CacheSection) error {
	var errs []error
	switch cfg.Backend {
	case "memory", "badger":
	case "redis":
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not supported (memory, redis, badger)", cfg.Backend))
	}
	if cfg.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if cfg.EncryptionKey != "" {
		if key, err := hex.DecodeString(cfg.EncryptionKey); err != nil || len(key) != 32 {
			errs = append(errs, errors.New("cache.encryption_key must be 64 hex characters"))
		}
	}
	switch cfg.Cipher {
	case "", "auto", "aes-gcm", "chacha20-poly1305":
	default:
		errs = append(errs, fmt.Errorf("cache.cipher %q is not supported", cfg.Cipher))
	}
	return errors.Join(errs...)
}

func verifyAuth(cfg *AuthSection) error {
	var errs []error
	if len(cfg.SecretKey) < MinSecretKeyLength {
		errs = append(errs, fmt.Errorf("auth.secret_key must be at least %d bytes", MinSecretKeyLength))
	}
	switch cfg.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("auth.algorithm %q is not supported (HS256, HS384, HS512)", cfg.Algorithm))
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.EmailTTL <= 0 {
		errs = append(errs, errors.New("auth token ttls must be positive"))
	}
	switch cfg.PasswordHash {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("auth.password_hash %q is not supported (bcrypt, argon2id)", cfg.PasswordHash))
	}
	return errors.Join(errs...)
}

func verifyMail(cfg *MailSection) error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if cfg.Host == "" {
		errs = append(errs, errors.New("mail.host is required when mail is enabled"))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("mail.port %d is out of range", cfg.Port))
	}
	if !strings.Contains(cfg.From, "@") {
		errs = append(errs, errors.New("mail.from must be an e-mail address"))
	}
	if cfg.SSL && cfg.StartTLS {
		errs = append(errs, errors.New("mail.ssl and mail.starttls are mutually exclusive"))
	}
	if cfg.QueueSize < 1 {
		errs = append(errs, errors.New("mail.queue_size must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyAvatar(cfg *AvatarSection) error {
	var errs []error
	if cfg.Dir == "" {
		errs = append(errs, errors.New("avatar.dir is required"))
	}
	if !strings.HasPrefix(cfg.URLPrefix, "/") {
		errs = append(errs, errors.New("avatar.url_prefix must start with /"))
	}
	if cfg.MaxBytes <= 0 {
		errs = append(errs, errors.New("avatar.max_bytes must be positive"))
	}
	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not supported", cfg.Format)
	}
	return nil
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
