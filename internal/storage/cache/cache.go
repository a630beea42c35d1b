package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Cache is a byte-oriented cache. A missing or expired key is reported as
// (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Memory
	MaxEntries int

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	// Badger; an empty dir runs in memory.
	BadgerDir        string
	BadgerGCInterval time.Duration

	// EncryptionKey is an optional 64-character hex key (32 bytes). When set,
	// values are sealed before they reach the backend.
	EncryptionKey string
	Cipher        string
}

// New builds the configured cache.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		c = NewMemory(cfg.MaxEntries)
	case BackendRedis:
		c, err = NewRedis(ctx, RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	case BackendBadger:
		c, err = NewBadger(BadgerConfig{Dir: cfg.BadgerDir, GCInterval: cfg.BadgerGCInterval}, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("cache encryption key: %w", err)
		}
		sealed, err := NewSealed(c, key, cfg.Cipher)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		logger.Info("cache values are sealed", "cipher", sealed.CipherName())
		c = sealed
	}

	logger.Info("cache ready", "backend", cfg.Backend)
	return c, nil
}
