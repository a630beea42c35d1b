package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"encryption_key",
	"dsn",
}

const redactedValue = "***REDACTED***"

// jwtPrefix is the base64url encoding of `{"`, the start of every JWT header.
const jwtPrefix = "eyJ"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if strings.Contains(v, jwtPrefix) {
			return slog.String(a.Key, RedactString(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks every JWT inside value, keeping only its header segment.
// Other text is returned unchanged.
func RedactString(value string) string {
	var b strings.Builder
	rest := value
	for {
		i := strings.Index(rest, jwtPrefix)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		tok := rest[i:]
		end := strings.IndexFunc(tok, func(r rune) bool { return !isTokenRune(r) })
		if end < 0 {
			end = len(tok)
		}
		b.WriteString(maskJWT(tok[:end]))
		rest = tok[end:]
	}
	return b.String()
}

// IsSensitiveKey reports whether a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// maskJWT keeps the header of a three-segment token. Anything else that
// merely starts with the prefix is left alone.
func maskJWT(tok string) string {
	if strings.Count(tok, ".") != 2 {
		return tok
	}
	return tok[:strings.IndexByte(tok, '.')+1] + "***"
}

func isTokenRune(r rune) bool {
	return r == '.' || r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
