package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/contacts-go/internal/core/domain"
	"github.com/yndnr/contacts-go/pkg/token"
)

// Scope distinguishes the purpose of a token; a token is only accepted
// where its scope is expected.
type Scope string

// Token scopes.
const (
	ScopeAccess  Scope = "access_token"
	ScopeRefresh Scope = "refresh_token"
	ScopeEmail   Scope = "email_token"
)

// MinSecretKeyLength is the minimum HMAC secret size in bytes.
const MinSecretKeyLength = 32

// Claims are the JWT claims issued by TokenService.
type Claims struct {
	Scope Scope `json:"scope"`
	jwt.RegisteredClaims
}

// TokenServiceConfig holds configuration for TokenService.
type TokenServiceConfig struct {
	// SecretKey signs and verifies every token.
	SecretKey []byte

	// Algorithm is HS256 (default), HS384 or HS512.
	Algorithm string

	// AccessTTL is the access token lifetime (default: 15m).
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime (default: 7d).
	RefreshTTL time.Duration

	// EmailTTL is the email confirmation token lifetime (default: 7d).
	EmailTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultTokenServiceConfig returns default configuration without a secret.
func DefaultTokenServiceConfig() *TokenServiceConfig {
	return &TokenServiceConfig{
		Algorithm:  "HS256",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		EmailTTL:   7 * 24 * time.Hour,
	}
}

// TokenService issues and verifies signed JWTs.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttls   map[Scope]time.Duration
	now    func() time.Time
}

// IssuedToken is a freshly signed token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg *TokenServiceConfig) (*TokenService, error) {
	if cfg == nil {
		return nil, errors.New("token service config is required")
	}
	if len(cfg.SecretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("secret key must be at least %d bytes", MinSecretKeyLength)
	}

	defaults := DefaultTokenServiceConfig()
	alg := cfg.Algorithm
	if alg == "" {
		alg = defaults.Algorithm
	}
	var method jwt.SigningMethod
	switch alg {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		secret: cfg.SecretKey,
		method: method,
		ttls: map[Scope]time.Duration{
			ScopeAccess:  pick(cfg.AccessTTL, defaults.AccessTTL),
			ScopeRefresh: pick(cfg.RefreshTTL, defaults.RefreshTTL),
			ScopeEmail:   pick(cfg.EmailTTL, defaults.EmailTTL),
		},
		now: now,
	}, nil
}

// Issue signs a token for subject with the given scope.
func (s *TokenService) Issue(subject string, scope Scope) (*IssuedToken, error) {
	ttl, ok := s.ttls[scope]
	if !ok {
		return nil, fmt.Errorf("unknown token scope %q", scope)
	}

	jti, err := token.NewID()
	if err != nil {
		return nil, fmt.Errorf("token id: %w", err)
	}

	now := s.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks signature, algorithm, expiry and scope, and returns the subject.
//
// Errors: ErrTokenExpired for an expired token; ErrTokenInvalid otherwise.
func (s *TokenService) Verify(raw string, scope Scope) (string, error) {
	if raw == "" {
		return "", domain.ErrInvalidCredentials
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired.WithCause(err)
		}
		return "", domain.ErrTokenInvalid.WithCause(err)
	}

	if claims.Scope != scope {
		return "", domain.ErrTokenInvalid.WithDetails("invalid scope for token")
	}
	if claims.Subject == "" {
		return "", domain.ErrTokenInvalid.WithDetails("token has no subject")
	}
	return claims.Subject, nil
}

// VerifyEmailToken verifies an email confirmation token.
// Any failure is reported as ErrConfirmationTokenInvalid.
func (s *TokenService) VerifyEmailToken(raw string) (string, error) {
	email, err := s.Verify(raw, ScopeEmail)
	if err != nil {
		return "", domain.ErrConfirmationTokenInvalid.WithCause(err)
	}
	return email, nil
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// IssuePair issues an access and a refresh token for subject.
func (s *TokenService) IssuePair(subject string) (*TokenPair, error) {
	access, err := s.Issue(subject, ScopeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(subject, ScopeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
	}, nil
}
