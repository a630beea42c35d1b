package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/contacts-go/internal/core/service"
	"github.com/yndnr/contacts-go/internal/infra/avatar"
	"github.com/yndnr/contacts-go/internal/infra/buildinfo"
	"github.com/yndnr/contacts-go/internal/infra/confloader"
	"github.com/yndnr/contacts-go/internal/infra/mailer"
	"github.com/yndnr/contacts-go/internal/infra/shutdown"
	"github.com/yndnr/contacts-go/internal/infra/tlsroots"
	"github.com/yndnr/contacts-go/internal/server/config"
	"github.com/yndnr/contacts-go/internal/server/httpserver"
	"github.com/yndnr/contacts-go/internal/storage/cache"
	"github.com/yndnr/contacts-go/internal/storage/sqlstore"
	"github.com/yndnr/contacts-go/internal/telemetry/logger"
	"github.com/yndnr/contacts-go/internal/telemetry/metric"
)

// limiterIdleTTL is how long an idle client's rate limiter is kept.
const limiterIdleTTL = 10 * time.Minute

func main() {
	app := &cli.App{
		Name:    "contacts-server",
		Usage:   "Contacts REST API server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"CONTACTS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file loaded before the environment (ignored when missing)",
				Value:   ".env",
				EnvVars: []string{"CONTACTS_ENV_FILE"},
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "apply log level changes from the configuration file",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), c.String("env-file"), c.Bool("watch"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, envFile string, watch bool) error {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("starting contacts-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config_file", configFile,
		"config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)
	// On a startup failure, release whatever was already opened.
	started := false
	defer func() {
		if !started {
			shutdownHandler.Shutdown()
		}
	}()

	// Hooks run in reverse order: http, tls, mailer, cache, database, watcher.
	if watch && configFile != "" {
		watcher, err := startWatcher(configFile, envFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	metrics := metric.NewRegistry()

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
	}, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	shutdownHandler.OnShutdown("database", func(context.Context) error {
		return store.Close()
	})

	userCache, err := cache.New(ctx, cache.Config{
		Backend:          cfg.Cache.Backend,
		MaxEntries:       cfg.Cache.MaxEntries,
		RedisAddr:        cfg.Cache.RedisAddr,
		RedisPassword:    cfg.Cache.RedisPassword,
		RedisDB:          cfg.Cache.RedisDB,
		KeyPrefix:        cfg.Cache.KeyPrefix,
		BadgerDir:        cfg.Cache.BadgerDir,
		BadgerGCInterval: cfg.Cache.BadgerGCInterval,
		EncryptionKey:    cfg.Cache.EncryptionKey,
		Cipher:           cfg.Cache.Cipher,
	}, log)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	shutdownHandler.OnShutdown("cache", func(context.Context) error {
		return userCache.Close()
	})

	transport, err := newMailTransport(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("init mail: %w", err)
	}
	dispatcher := mailer.NewDispatcher(transport, mailer.Options{
		QueueSize: cfg.Mail.QueueSize,
		TokenTTL:  cfg.Auth.EmailTTL,
		Logger:    log,
		Recorder:  metrics,
	})
	shutdownHandler.OnShutdown("mailer", dispatcher.Close)

	avatars, err := avatar.NewStore(avatar.Config{
		Dir:       cfg.Avatar.Dir,
		URLPrefix: cfg.Avatar.URLPrefix,
		MaxBytes:  cfg.Avatar.MaxBytes,
	})
	if err != nil {
		return fmt.Errorf("init avatar store: %w", err)
	}

	users, contacts, err := newServices(cfg, store, userCache, dispatcher, avatars, metrics, log)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	clientIPs, err := httpserver.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	routerCfg := &httpserver.RouterConfig{
		Users:          users,
		Contacts:       contacts,
		Ready:          store.Ping,
		Metrics:        metrics,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ClientIPs:      clientIPs,
		PublicURL:      cfg.Server.PublicURL,
		StaticDir:      avatars.Dir(),
		StaticPrefix:   cfg.Avatar.URLPrefix,
		MaxAvatarBytes: cfg.Avatar.MaxBytes,
		Logger:         log,
	}
	if rl := cfg.Server.RateLimit; rl.PerSecond > 0 {
		limiter := service.NewRateLimiterRegistry(rl.PerSecond, rl.Burst, limiterIdleTTL)
		go sweepLimiters(ctx, limiter)
		routerCfg.Limiter = limiter
	}

	opts := []httpserver.Option{
		httpserver.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout),
		httpserver.WithErrorLog(log),
	}
	if cfg.Server.TLSCertFile != "" {
		certs, err := tlsroots.NewCertReloader(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile, log)
		if err != nil {
			return err
		}
		if err := certs.Watch(); err != nil {
			log.Warn("TLS certificate changes will need a restart", "error", err)
		}
		shutdownHandler.OnShutdown("tls", func(context.Context) error { return certs.Close() })
		opts = append(opts, httpserver.WithCertificate(certs.GetCertificate))
	}
	srv := httpserver.New(cfg.Server.Addr, httpserver.NewRouter(routerCfg), opts...)
	shutdownHandler.OnShutdown("http", srv.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.Addr, "tls", srv.TLS())
		if err := srv.ListenAndServe(); err != nil {
			serveErr <- err
			cancel()
		}
	}()

	started = true
	log.Info("server started, press Ctrl+C to stop")
	shutdownErr := shutdownHandler.Wait(ctx)

	select {
	case err := <-serveErr:
		return errors.Join(fmt.Errorf("http server: %w", err), shutdownErr)
	default:
	}
	if shutdownErr != nil {
		return shutdownErr
	}
	log.Info("server stopped gracefully")
	return nil
}

func newServices(
	cfg *config.ServerConfig,
	store *sqlstore.Store,
	userCache cache.Cache,
	dispatcher *mailer.Dispatcher,
	avatars *avatar.Store,
	metrics *metric.Registry,
	log *slog.Logger,
) (*service.UserService, *service.ContactService, error) {
	hasher, err := service.NewPasswordHasher(cfg.Auth.PasswordHash, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := service.NewTokenService(&service.TokenServiceConfig{
		SecretKey:  []byte(cfg.Auth.SecretKey),
		Algorithm:  cfg.Auth.Algorithm,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		EmailTTL:   cfg.Auth.EmailTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	users, err := service.NewUserService(service.UserServiceDeps{
		Repo:     store.Users(),
		Hasher:   hasher,
		Tokens:   tokens,
		Cache:    userCache,
		Mailer:   dispatcher,
		Avatars:  avatars,
		Logger:   log,
		Recorder: metrics,
		CacheTTL: cfg.Cache.TTL,
	})
	if err != nil {
		return nil, nil, err
	}
	return users, service.NewContactService(store.Contacts()), nil
}

// newMailTransport returns an SMTP transport, or a logging one when mail is disabled.
func newMailTransport(cfg config.MailSection, log *slog.Logger) (mailer.Transport, error) {
	if !cfg.Enabled {
		log.Warn("mail delivery disabled, confirmation messages are logged")
		return mailer.LogTransport{Logger: log}, nil
	}
	smtpCfg := mailer.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
		SSL:      cfg.SSL,
		StartTLS: cfg.StartTLS,
		Timeout:  cfg.Timeout,
	}
	if cfg.CAFile != "" {
		pool, err := tlsroots.LoadPool(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		smtpCfg.RootCAs = pool
	}
	return mailer.NewSMTPTransport(smtpCfg)
}

func startWatcher(configFile, envFile string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(config.ReloadLogLevel(envFile, log))
	w.StartAsync()
	return w, nil
}

// sweepLimiters drops idle per-client limiters until ctx is done.
func sweepLimiters(ctx context.Context, limiter *service.RateLimiterRegistry) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
