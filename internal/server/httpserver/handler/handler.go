package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/contacts-go/internal/core/domain"
	"github.com/yndnr/contacts-go/internal/core/service"
	"github.com/yndnr/contacts-go/internal/telemetry/logger"
)

// Request body limits.
const (
	MaxJSONBodyBytes = 1 << 20

	// multipartOverhead is allowed on top of the avatar size for part headers.
	multipartOverhead = 64 << 10
)

// DefaultMaxAvatarBytes is used when Config.MaxAvatarBytes is not set.
const DefaultMaxAvatarBytes = 5 << 20

// Users is the account workflow used by the auth and user handlers.
type Users interface {
	Signup(ctx context.Context, in domain.Signup, baseURL string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (string, error)
	RequestEmail(ctx context.Context, email, baseURL string) (string, error)
	UpdateAvatar(ctx context.Context, user *domain.User, contentType string, r io.Reader) (*domain.User, error)
}

// Contacts is the per-user address book used by the contact handlers.
type Contacts interface {
	Create(ctx context.Context, userID int64, in domain.ContactInput) (*domain.Contact, error)
	Get(ctx context.Context, userID, id int64) (*domain.Contact, error)
	List(ctx context.Context, userID int64, page, pageSize int) (*service.ListResult, error)
	Search(ctx context.Context, userID int64, filter domain.ContactFilter) ([]*domain.Contact, error)
	Update(ctx context.Context, userID, id int64, in domain.ContactInput) (*domain.Contact, error)
	Delete(ctx context.Context, userID, id int64) (*domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]service.UpcomingBirthday, error)
}

// Config holds the collaborators of Handler.
type Config struct {
	Users    Users
	Contacts Contacts

	// Ready reports whether dependencies (the database) are reachable.
	// Nil means always ready.
	Ready func(ctx context.Context) error

	// Metrics is served at GET /metrics when set.
	Metrics http.Handler

	// StaticDir is served under StaticPrefix when both are set.
	StaticDir    string
	StaticPrefix string

	// PublicURL is the externally visible base URL used in confirmation
	// links. When empty it is derived from the request.
	PublicURL string

	MaxAvatarBytes int64

	// RequireUser wraps handlers that need an authenticated user.
	// It must store the user with WithUser.
	RequireUser func(http.Handler) http.Handler

	Logger *slog.Logger
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	users          Users
	contacts       Contacts
	ready          func(ctx context.Context) error
	publicURL      string
	maxAvatarBytes int64
	logger         *slog.Logger
	mux            *http.ServeMux
}

// New creates a Handler and registers its routes.
func New(cfg Config) *Handler {
	h := &Handler{
		users:          cfg.Users,
		contacts:       cfg.Contacts,
		ready:          cfg.Ready,
		publicURL:      strings.TrimRight(cfg.PublicURL, "/"),
		maxAvatarBytes: cfg.MaxAvatarBytes,
		logger:         cfg.Logger,
		mux:            http.NewServeMux(),
	}
	if h.maxAvatarBytes <= 0 {
		h.maxAvatarBytes = DefaultMaxAvatarBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	requireUser := cfg.RequireUser
	if requireUser == nil {
		requireUser = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				WriteError(w, r, domain.ErrInvalidCredentials)
			})
		}
	}

	h.registerRoutes(requireUser, cfg)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(requireUser func(http.Handler) http.Handler, cfg Config) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return requireUser(fn)
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	if cfg.Metrics != nil {
		h.mux.Handle("GET /metrics", cfg.Metrics)
	}
	if cfg.StaticDir != "" && cfg.StaticPrefix != "" {
		prefix := "/" + strings.Trim(cfg.StaticPrefix, "/")
		h.mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix, staticFiles(cfg.StaticDir)))
	}

	h.mux.HandleFunc("POST /auth/signup", h.handleSignup)
	h.mux.HandleFunc("POST /auth/login", h.handleLogin)
	h.mux.HandleFunc("GET /auth/refresh_token", h.handleRefresh)
	h.mux.HandleFunc("GET /auth/confirmed_email/{token}", h.handleConfirmEmail)
	h.mux.HandleFunc("POST /auth/request_email", h.handleRequestEmail)

	h.mux.Handle("GET /users/me", authed(h.handleMe))
	h.mux.Handle("PATCH /users/avatar", authed(h.handleUpdateAvatar))

	h.mux.Handle("GET /contacts", authed(h.handleListContacts))
	h.mux.Handle("POST /contacts", authed(h.handleCreateContact))
	h.mux.Handle("GET /contacts/search", authed(h.handleSearchContacts))
	h.mux.Handle("GET /contacts/birthdays", authed(h.handleBirthdays))
	h.mux.Handle("GET /contacts/{id}", authed(h.handleGetContact))
	h.mux.Handle("PUT /contacts/{id}", authed(h.handleUpdateContact))
	h.mux.Handle("DELETE /contacts/{id}", authed(h.handleDeleteContact))
}

// WriteJSON writes data in a success envelope.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}

// WriteError writes err in an error envelope. Errors that are not domain
// errors are reported as internal errors; their text is only logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	de := domain.AsDomainError(err)
	if de == nil {
		de = domain.ErrInternal.WithCause(err)
	}
	status := StatusForCode(de.Code)
	if status >= http.StatusInternalServerError {
		logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err, "cause", de.Cause)
	}

	var details any
	if de.Details != "" {
		details = de.Details
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(logger.RequestIDFromContext(r.Context()), de.Code, de.Message, details))
}

// StatusForCode maps an error code such as "CT-USER-4090" to its HTTP status:
// the first three digits of the numeric suffix. Unknown shapes map to 500.
func StatusForCode(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 < 3 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(code[i+1 : i+4])
	if err != nil || status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// baseURL returns the externally visible root URL of the service.
func (h *Handler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return domain.ErrBadRequest.WithDetails("content type must be application/json")
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrBadRequest.WithDetails("request body too large")
		}
		return domain.ErrBadRequest.WithDetails("invalid JSON body: " + err.Error())
	}
	return nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrBadRequest.WithDetails(name + " must be an integer")
	}
	return n, nil
}

// staticFiles serves files from dir without directory listings.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fs.ServeHTTP(w, r)
	})
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
