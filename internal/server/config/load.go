package config

import (
	"fmt"
	"log/slog"

	"github.com/yndnr/contacts-go/internal/infra/confloader"
	"github.com/yndnr/contacts-go/internal/telemetry/logger"
)

// Load builds the configuration from defaults, the optional YAML file and
// dotenv file, and the environment, then verifies it.
func Load(path, envFile string) (*ServerConfig, error) {
	cfg := Default()
	opts := []confloader.Option{confloader.WithConfigFile(path)}
	if envFile != "" {
		opts = append(opts, confloader.WithDotEnv(envFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ReloadLogLevel returns a watcher callback that re-reads the file and
// applies log.level. Other settings need a restart.
func ReloadLogLevel(envFile string, log *slog.Logger) func(string) {
	return func(path string) {
		cfg, err := Load(path, envFile)
		if err != nil {
			log.Warn("configuration reload rejected", "file", path, "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", logger.GetLevel())
	}
}
