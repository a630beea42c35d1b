package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yndnr/contacts-go/internal/server/httpserver/handler"
	"github.com/yndnr/contacts-go/internal/telemetry/metric"
)

// UserService is the account workflow plus token authentication.
type UserService interface {
	handler.Users
	Authenticator
}

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Users    UserService
	Contacts handler.Contacts

	// Ready reports database reachability for GET /ready.
	Ready func(ctx context.Context) error

	// Metrics records request metrics and serves GET /metrics when set.
	Metrics *metric.Registry

	// Limiter applies per-IP rate limiting when set.
	Limiter RateLimiter

	// ClientIPs resolves client addresses for rate limiting and logs.
	// Nil uses the peer address only.
	ClientIPs *ClientIPResolver

	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string

	PublicURL      string
	StaticDir      string
	StaticPrefix   string
	MaxAvatarBytes int64

	Logger *slog.Logger
}

// NewRouter creates the HTTP handler with all routes and middleware.
//
// Order: Recover -> RequestID -> CORS -> RateLimit -> Audit -> routes.
// Authentication is applied per route.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	hcfg := handler.Config{
		Users:          cfg.Users,
		Contacts:       cfg.Contacts,
		Ready:          cfg.Ready,
		PublicURL:      cfg.PublicURL,
		StaticDir:      cfg.StaticDir,
		StaticPrefix:   cfg.StaticPrefix,
		MaxAvatarBytes: cfg.MaxAvatarBytes,
		RequireUser:    Auth(cfg.Users),
		Logger:         log,
	}
	var observer RequestObserver
	if cfg.Metrics != nil {
		hcfg.Metrics = cfg.Metrics.Handler()
		observer = cfg.Metrics
	}
	h := handler.New(hcfg)

	middlewares := []Middleware{Recover(log), RequestID(log)}
	if len(cfg.CORSOrigins) > 0 {
		middlewares = append(middlewares, CORS(cfg.CORSOrigins))
	}
	if cfg.Limiter != nil {
		middlewares = append(middlewares, RateLimit(cfg.Limiter, cfg.ClientIPs))
	}
	middlewares = append(middlewares, Audit(log, observer, cfg.ClientIPs))

	return Chain(h, middlewares...)
}
