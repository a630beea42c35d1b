package benchmark

import (
	"strconv"
	"testing"

	"github.com/yndnr/contacts-go/internal/core/service"
	"github.com/yndnr/contacts-go/pkg/token"
)

func newTokenService(b *testing.B, alg string) *service.TokenService {
	b.Helper()
	cfg := service.DefaultTokenServiceConfig()
	cfg.SecretKey = benchSecret
	cfg.Algorithm = alg
	svc, err := service.NewTokenService(cfg)
	mustNoErr(b, err)
	return svc
}

func BenchmarkTokenIssue(b *testing.B) {
	for _, alg := range []string{"HS256", "HS512"} {
		b.Run(alg, func(b *testing.B) {
			svc := newTokenService(b, alg)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := svc.Issue(strconv.Itoa(i), service.ScopeAccess)
				mustNoErr(b, err)
			}
		})
	}
}

func BenchmarkTokenVerify(b *testing.B) {
	svc := newTokenService(b, "HS256")
	issued, err := svc.Issue("ann@example.com", service.ScopeAccess)
	mustNoErr(b, err)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := svc.Verify(issued.Token, service.ScopeAccess)
		mustNoErr(b, err)
	}
}

func BenchmarkTokenIssuePair(b *testing.B) {
	svc := newTokenService(b, "HS256")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := svc.IssuePair("ann@example.com")
		mustNoErr(b, err)
	}
}

// BenchmarkRefreshTokenHash covers the digest stored for refresh tokens.
func BenchmarkRefreshTokenHash(b *testing.B) {
	tok, err := token.Generate(64)
	mustNoErr(b, err)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		token.Hash(tok)
	}
}
