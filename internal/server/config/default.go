package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRatePerSecond   = 20
	DefaultRateBurst       = 40

	DefaultDriver       = "sqlite"
	DefaultDSN          = "contacts.db"
	DefaultMaxOpenConns = 10
	DefaultMaxIdleConns = 5

	DefaultCacheBackend = "memory"
	DefaultCacheTTL     = 300 * time.Second
	DefaultCacheEntries = 10000
	DefaultKeyPrefix    = "contacts:"

	DefaultAlgorithm    = "HS256"
	DefaultAccessTTL    = 15 * time.Minute
	DefaultRefreshTTL   = 7 * 24 * time.Hour
	DefaultEmailTTL     = 7 * 24 * time.Hour
	DefaultPasswordHash = "bcrypt"

	DefaultMailPort      = 465
	DefaultMailQueueSize = 100
	DefaultMailTimeout   = 30 * time.Second
	DefaultMailFromName  = "Contacts"

	DefaultAvatarDir       = "static/avatars"
	DefaultAvatarURLPrefix = "/static/avatars"
	DefaultAvatarMaxBytes  = 5 << 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration. The auth secret has no
// default and must be supplied.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultHTTPAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit: RateLimitConfig{
				PerSecond: DefaultRatePerSecond,
				Burst:     DefaultRateBurst,
			},
		},
		Storage: StorageSection{
			Driver:       DefaultDriver,
			DSN:          DefaultDSN,
			MaxOpenConns: DefaultMaxOpenConns,
			MaxIdleConns: DefaultMaxIdleConns,
		},
		Cache: CacheSection{
			Backend:    DefaultCacheBackend,
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheEntries,
			KeyPrefix:  DefaultKeyPrefix,
		},
		Auth: AuthSection{
			Algorithm:    DefaultAlgorithm,
			AccessTTL:    DefaultAccessTTL,
			RefreshTTL:   DefaultRefreshTTL,
			EmailTTL:     DefaultEmailTTL,
			PasswordHash: DefaultPasswordHash,
		},
		Mail: MailSection{
			Port:      DefaultMailPort,
			SSL:       true,
			FromName:  DefaultMailFromName,
			QueueSize: DefaultMailQueueSize,
			Timeout:   DefaultMailTimeout,
		},
		Avatar: AvatarSection{
			Dir:       DefaultAvatarDir,
			URLPrefix: DefaultAvatarURLPrefix,
			MaxBytes:  DefaultAvatarMaxBytes,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
