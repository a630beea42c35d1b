package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock is a settable clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokenService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	cfg := DefaultTokenServiceConfig()
	cfg.SecretKey = testSecret
	if clock != nil {
		cfg.Now = clock.Now
	}
	svc, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func TestNewTokenService_Config(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TokenServiceConfig)
		wantErr bool
	}{
		{"defaults", func(*TokenServiceConfig) {}, false},
		{"hs512", func(c *TokenServiceConfig) { c.Algorithm = "HS512" }, false},
		{"short secret", func(c *TokenServiceConfig) { c.SecretKey = []byte("short") }, true},
		{"rsa not supported", func(c *TokenServiceConfig) { c.Algorithm = "RS256" }, true},
		{"none not supported", func(c *TokenServiceConfig) { c.Algorithm = "none" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTokenServiceConfig()
			cfg.SecretKey = testSecret
			tt.mutate(cfg)
			_, err := NewTokenService(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewTokenService(nil); err == nil {
		t.Error("NewTokenService(nil) should fail")
	}
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc := newTestTokenService(t, nil)

	for _, scope := range []Scope{ScopeAccess, ScopeRefresh, ScopeEmail} {
		t.Run(string(scope), func(t *testing.T) {
			issued, err := svc.Issue("ann@example.com", scope)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			subject, err := svc.Verify(issued.Token, scope)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if subject != "ann@example.com" {
				t.Errorf("subject = %q", subject)
			}
		})
	}
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	access, err := svc.Issue("ann@example.com", ScopeAccess)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if want := clock.t.Add(15 * time.Minute); !access.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", access.ExpiresAt, want)
	}

	clock.t = clock.t.Add(14 * time.Minute)
	if _, err := svc.Verify(access.Token, ScopeAccess); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = svc.Verify(access.Token, ScopeAccess)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}

	refresh, _ := svc.Issue("ann@example.com", ScopeRefresh)
	clock.t = clock.t.Add(6 * 24 * time.Hour)
	if _, err := svc.Verify(refresh.Token, ScopeRefresh); err != nil {
		t.Errorf("refresh token should live 7 days: %v", err)
	}
	clock.t = clock.t.Add(25 * time.Hour)
	if _, err := svc.Verify(refresh.Token, ScopeRefresh); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestTokenService_ScopeIsEnforced(t *testing.T) {
	svc := newTestTokenService(t, nil)

	refresh, _ := svc.Issue("ann@example.com", ScopeRefresh)
	if _, err := svc.Verify(refresh.Token, ScopeAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("refresh token accepted as access: %v", err)
	}

	access, _ := svc.Issue("ann@example.com", ScopeAccess)
	if _, err := svc.Verify(access.Token, ScopeRefresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("access token accepted as refresh: %v", err)
	}
	if _, err := svc.VerifyEmailToken(access.Token); !errors.Is(err, domain.ErrConfirmationTokenInvalid) {
		t.Errorf("access token accepted as email token: %v", err)
	}
}

func TestTokenService_RejectsForgedTokens(t *testing.T) {
	svc := newTestTokenService(t, nil)
	issued, _ := svc.Issue("ann@example.com", ScopeAccess)

	otherCfg := DefaultTokenServiceConfig()
	otherCfg.SecretKey = []byte(strings.Repeat("x", 32))
	other, _ := NewTokenService(otherCfg)
	foreign, _ := other.Issue("ann@example.com", ScopeAccess)

	parts := strings.Split(issued.Token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Scope:            ScopeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ann@example.com", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	hs512Cfg := DefaultTokenServiceConfig()
	hs512Cfg.SecretKey = testSecret
	hs512Cfg.Algorithm = "HS512"
	hs512, _ := NewTokenService(hs512Cfg)
	wrongAlg, _ := hs512.Issue("ann@example.com", ScopeAccess)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", domain.ErrInvalidCredentials},
		{"garbage", "not.a.jwt", domain.ErrTokenInvalid},
		{"other secret", foreign.Token, domain.ErrTokenInvalid},
		{"tampered signature", tampered, domain.ErrTokenInvalid},
		{"alg none", unsigned, domain.ErrTokenInvalid},
		{"different algorithm", wrongAlg.Token, domain.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token, ScopeAccess)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTokenService_UniqueTokens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokenService(t, clock)

	a, _ := svc.IssuePair("ann@example.com")
	b, _ := svc.IssuePair("ann@example.com")
	if a.RefreshToken == b.RefreshToken || a.AccessToken == b.AccessToken {
		t.Error("tokens issued in the same second must differ")
	}
	if a.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", a.TokenType)
	}
}
