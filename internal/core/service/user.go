package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/yndnr/contacts-go/internal/core/domain"
	"github.com/yndnr/contacts-go/pkg/token"
)

// Messages returned by the email confirmation workflow.
const (
	MsgEmailConfirmed   = "Email confirmed"
	MsgAlreadyConfirmed = "Your email is already confirmed"
	MsgCheckEmail       = "Check your email for confirmation."
)

// DefaultUserCacheTTL is how long an authenticated-user lookup is cached.
const DefaultUserCacheTTL = 300 * time.Second

// UserRepository is the user directory.
// Lookups of an absent user return domain.ErrUserNotFound and Create returns
// domain.ErrUserExists when the email is taken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateRefreshToken(ctx context.Context, userID int64, tokenHash string) error
	Confirm(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, url string) (*domain.User, error)
}

// SessionCache is a byte-oriented key/value cache with per-entry TTL.
type SessionCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EmailSender delivers confirmation emails.
type EmailSender interface {
	SendConfirmation(ctx context.Context, to, username, baseURL, token string) error
}

// AvatarStore persists avatar images and provides default avatars.
// Remove ignores URLs it does not own.
type AvatarStore interface {
	Save(ctx context.Context, owner, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
	Default(email string) string
}

// Recorder receives service-level events for metrics.
type Recorder interface {
	CacheLookup(hit bool)
	AuthEvent(event, result string)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(bool)         {}
func (nopRecorder) AuthEvent(string, string) {}

// UserServiceDeps are the collaborators of UserService.
// Repo, Hasher and Tokens are required.
type UserServiceDeps struct {
	Repo     UserRepository
	Hasher   PasswordHasher
	Tokens   *TokenService
	Cache    SessionCache
	Mailer   EmailSender
	Avatars  AvatarStore
	Logger   *slog.Logger
	Recorder Recorder

	// CacheTTL is the lifetime of cached user records (default: 300s).
	CacheTTL time.Duration
}

// UserService implements signup, login, token refresh, email confirmation
// and authenticated-user resolution.
type UserService struct {
	repo     UserRepository
	hasher   PasswordHasher
	tokens   *TokenService
	cache    SessionCache
	mailer   EmailSender
	avatars  AvatarStore
	logger   *slog.Logger
	recorder Recorder
	cacheTTL time.Duration
}

// NewUserService creates a UserService.
func NewUserService(deps UserServiceDeps) (*UserService, error) {
	if deps.Repo == nil || deps.Hasher == nil || deps.Tokens == nil {
		return nil, errors.New("user service requires repo, hasher and tokens")
	}
	s := &UserService{
		repo:     deps.Repo,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		cache:    deps.Cache,
		mailer:   deps.Mailer,
		avatars:  deps.Avatars,
		logger:   deps.Logger,
		recorder: deps.Recorder,
		cacheTTL: deps.CacheTTL,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultUserCacheTTL
	}
	return s, nil
}

// Tokens returns the token service used for issuing and verifying tokens.
func (s *UserService) Tokens() *TokenService {
	return s.tokens
}

// Signup registers a new, unconfirmed user and sends a confirmation email.
// baseURL is the externally visible URL used to build the confirmation link.
func (s *UserService) Signup(ctx context.Context, in domain.Signup, baseURL string) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		s.recorder.AuthEvent("signup", "conflict")
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, storageError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if s.avatars != nil {
		user.Avatar = s.avatars.Default(in.Email)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.recorder.AuthEvent("signup", "conflict")
			return nil, domain.ErrUserExists
		}
		return nil, storageError(err)
	}

	s.recorder.AuthEvent("signup", "success")
	s.sendConfirmation(ctx, user, baseURL)
	return user, nil
}

// Login checks credentials and issues a new token pair.
// The new refresh token replaces any previously stored one.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recorder.AuthEvent("login", "failure")
			return nil, domain.ErrInvalidEmail
		}
		return nil, storageError(err)
	}

	if !user.Confirmed {
		s.recorder.AuthEvent("login", "unconfirmed")
		return nil, domain.ErrEmailNotConfirmed
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recorder.AuthEvent("login", "failure")
		return nil, domain.ErrInvalidPassword
	}

	pair, err := s.rotate(ctx, user)
	if err != nil {
		return nil, err
	}
	s.recorder.AuthEvent("login", "success")
	return pair, nil
}

// Refresh exchanges a refresh token for a new token pair.
//
// The presented token must equal the stored one. On mismatch the stored
// token is cleared, so a leaked older token also invalidates the current one.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.Verify(refreshToken, ScopeRefresh)
	if err != nil {
		s.recorder.AuthEvent("refresh", "failure")
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, storageError(err)
	}

	if !token.Match(refreshToken, user.RefreshTokenHash) {
		if err := s.repo.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
			return nil, storageError(err)
		}
		user.RefreshTokenHash = ""
		s.storeCached(ctx, user)
		s.recorder.AuthEvent("refresh", "mismatch")
		s.logger.Warn("refresh token mismatch, stored token cleared", "user_id", user.ID)
		return nil, domain.ErrRefreshTokenMismatch
	}

	pair, err := s.rotate(ctx, user)
	if err != nil {
		return nil, err
	}
	s.recorder.AuthEvent("refresh", "success")
	return pair, nil
}

// ConfirmEmail marks the token's user as confirmed and returns a status message.
func (s *UserService) ConfirmEmail(ctx context.Context, emailToken string) (string, error) {
	email, err := s.tokens.VerifyEmailToken(emailToken)
	if err != nil {
		return "", err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrVerification
		}
		return "", storageError(err)
	}
	if user.Confirmed {
		return MsgAlreadyConfirmed, nil
	}

	if err := s.repo.Confirm(ctx, email); err != nil {
		return "", storageError(err)
	}
	user.Confirmed = true
	s.storeCached(ctx, user)
	s.recorder.AuthEvent("confirm", "success")
	return MsgEmailConfirmed, nil
}

// RequestEmail re-sends the confirmation email. The reply does not reveal
// whether the address is registered.
func (s *UserService) RequestEmail(ctx context.Context, email, baseURL string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return MsgCheckEmail, nil
		}
		return "", storageError(err)
	}
	if user.Confirmed {
		return MsgAlreadyConfirmed, nil
	}
	s.sendConfirmation(ctx, user, baseURL)
	return MsgCheckEmail, nil
}

// Authenticate resolves an access token to its user, consulting the cache first.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	email, err := s.tokens.Verify(accessToken, ScopeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid.WithDetails("unknown subject")
		}
		return nil, storageError(err)
	}
	return user, nil
}

// UpdateAvatar stores a new avatar image for user and returns the updated user.
func (s *UserService) UpdateAvatar(ctx context.Context, user *domain.User, contentType string, r io.Reader) (*domain.User, error) {
	if s.avatars == nil {
		return nil, domain.ErrUnavailable.WithDetails("avatar storage is not configured")
	}

	url, err := s.avatars.Save(ctx, strconv.FormatInt(user.ID, 10), contentType, r)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return nil, err
		}
		return nil, domain.ErrInternal.WithCause(err)
	}

	updated, err := s.repo.UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		s.removeAvatar(ctx, url)
		return nil, storageError(err)
	}
	s.storeCached(ctx, updated)
	if user.Avatar != "" && user.Avatar != url {
		s.removeAvatar(ctx, user.Avatar)
	}
	return updated, nil
}

func (s *UserService) removeAvatar(ctx context.Context, url string) {
	if err := s.avatars.Remove(ctx, url); err != nil {
		s.logger.Warn("failed to remove avatar file", "url", url, "error", err)
	}
}

// rotate issues a token pair and stores the refresh token hash.
func (s *UserService) rotate(ctx context.Context, user *domain.User) (*TokenPair, error) {
	pair, err := s.tokens.IssuePair(user.Email)
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}

	hash := token.Hash(pair.RefreshToken)
	if err := s.repo.UpdateRefreshToken(ctx, user.ID, hash); err != nil {
		return nil, storageError(err)
	}
	user.RefreshTokenHash = hash
	s.storeCached(ctx, user)
	return pair, nil
}

func (s *UserService) sendConfirmation(ctx context.Context, user *domain.User, baseURL string) {
	if s.mailer == nil {
		return
	}
	issued, err := s.tokens.Issue(user.Email, ScopeEmail)
	if err != nil {
		s.logger.Error("failed to issue email token", "user_id", user.ID, "error", err)
		return
	}
	if err := s.mailer.SendConfirmation(ctx, user.Email, user.Username, baseURL, issued.Token); err != nil {
		s.logger.Warn("failed to queue confirmation email", "user_id", user.ID, "error", err)
	}
}

// ============================================================================
// Read-through user cache
// ============================================================================

// cachedUser is the cache representation of a user, including the fields
// hidden from API responses.
type cachedUser struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Avatar           string    `json:"avatar"`
	PasswordHash     string    `json:"password_hash"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	Confirmed        bool      `json:"confirmed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func userCacheKey(email string) string {
	return "user:" + email
}

// lookup returns the user from cache, falling back to the repository and
// populating the cache on a miss. Cache failures degrade to a miss.
func (s *UserService) lookup(ctx context.Context, email string) (*domain.User, error) {
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, userCacheKey(email))
		switch {
		case err != nil:
			s.logger.Warn("user cache read failed", "error", err)
		case ok:
			var cu cachedUser
			if err := json.Unmarshal(data, &cu); err == nil {
				s.recorder.CacheLookup(true)
				return cu.toDomain(), nil
			}
			s.logger.Warn("discarding undecodable user cache entry")
		}
		s.recorder.CacheLookup(false)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.storeCached(ctx, user)
	return user, nil
}

// storeCached overwrites the cache entry for user.
func (s *UserService) storeCached(ctx context.Context, user *domain.User) {
	if s.cache == nil || user == nil {
		return
	}
	data, err := json.Marshal(cachedUserFrom(user))
	if err != nil {
		s.logger.Error("failed to encode user cache entry", "error", err)
		return
	}
	if err := s.cache.Set(ctx, userCacheKey(user.Email), data, s.cacheTTL); err != nil {
		s.logger.Warn("user cache write failed", "error", err)
	}
}

func cachedUserFrom(u *domain.User) cachedUser {
	return cachedUser{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Avatar:           u.Avatar,
		PasswordHash:     u.PasswordHash,
		RefreshTokenHash: u.RefreshTokenHash,
		Confirmed:        u.Confirmed,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:               c.ID,
		Username:         c.Username,
		Email:            c.Email,
		Avatar:           c.Avatar,
		PasswordHash:     c.PasswordHash,
		RefreshTokenHash: c.RefreshTokenHash,
		Confirmed:        c.Confirmed,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// storageError passes domain errors through and wraps anything else as ErrStorage.
func storageError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorage.WithCause(err)
}
