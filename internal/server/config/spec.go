package config

import "time"

// ServerConfig is the root configuration for contacts-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Cache   CacheSection   `koanf:"cache"`
	Auth    AuthSection    `koanf:"auth"`
	Mail    MailSection    `koanf:"mail"`
	Avatar  AvatarSection  `koanf:"avatar"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the HTTP endpoint.
type ServerSection struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// PublicURL is the externally visible base URL used in confirmation
	// links. Empty derives it from each request.
	PublicURL string `koanf:"public_url"`

	CORSOrigins []string `koanf:"cors_origins"`

	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are honored. Empty ignores those headers.
	TrustedProxies []string `koanf:"trusted_proxies"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig configures per-client request limiting. A zero rate
// disables it.
type RateLimitConfig struct {
	PerSecond float64 `koanf:"per_second"`
	Burst     int     `koanf:"burst"`
}

// StorageSection configures the SQL database.
type StorageSection struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// CacheSection configures the user cache.
type CacheSection struct {
	Backend    string        `koanf:"backend"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	KeyPrefix     string `koanf:"key_prefix"`

	BadgerDir        string        `koanf:"badger_dir"`
	BadgerGCInterval time.Duration `koanf:"badger_gc_interval"`

	// EncryptionKey is a 64-character hex key; when set, cached values are sealed.
	EncryptionKey string `koanf:"encryption_key"`
	Cipher        string `koanf:"cipher"`
}

// AuthSection configures tokens and password hashing.
type AuthSection struct {
	SecretKey    string        `koanf:"secret_key"`
	Algorithm    string        `koanf:"algorithm"`
	AccessTTL    time.Duration `koanf:"access_ttl"`
	RefreshTTL   time.Duration `koanf:"refresh_ttl"`
	EmailTTL     time.Duration `koanf:"email_ttl"`
	PasswordHash string        `koanf:"password_hash"`
	BcryptCost   int           `koanf:"bcrypt_cost"`
}

// MailSection configures outgoing mail. When disabled, messages are logged
// instead of sent.
type MailSection struct {
	Enabled   bool   `koanf:"enabled"`
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
	From      string `koanf:"from"`
	FromName  string `koanf:"from_name"`
	SSL       bool   `koanf:"ssl"`
	StartTLS  bool   `koanf:"starttls"`
	CAFile    string `koanf:"ca_file"`
	QueueSize int    `koanf:"queue_size"`

	Timeout time.Duration `koanf:"timeout"`
}

// AvatarSection configures avatar storage.
type AvatarSection struct {
	Dir       string `koanf:"dir"`
	URLPrefix string `koanf:"url_prefix"`
	MaxBytes  int64  `koanf:"max_bytes"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
