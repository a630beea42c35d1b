package avatar

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes = 5 << 20

// GravatarBaseURL is the Gravatar image endpoint.
const GravatarBaseURL = "https://www.gravatar.com/avatar/"

// allowed maps accepted image types to file extensions.
var allowed = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Config configures a Store.
type Config struct {
	// Dir receives uploaded files; it is created when missing.
	Dir string
	// URLPrefix is the public path Dir is served under, e.g. /static/avatars.
	URLPrefix string
	MaxBytes  int64
}

// Store keeps avatars in a directory served as static files.
type Store struct {
	dir      string
	prefix   string
	maxBytes int64
}

// NewStore creates the directory if needed and returns a Store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("avatar dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Store{
		dir:      cfg.Dir,
		prefix:   "/" + strings.Trim(cfg.URLPrefix, "/"),
		maxBytes: cfg.MaxBytes,
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save validates an uploaded image and stores it under a fresh name.
// The declared content type must be an accepted image type and must agree
// with the sniffed content.
//
// Errors: ErrAvatarInvalid for a wrong type, ErrAvatarTooLarge above the limit.
func (s *Store) Save(ctx context.Context, owner, contentType string, r io.Reader) (string, error) {
	declared, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", domain.ErrAvatarInvalid.WithDetails("missing or malformed content type")
	}
	if _, ok := allowed[declared]; !ok {
		return "", domain.ErrAvatarInvalid.WithDetails("unsupported image type " + declared)
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", domain.ErrAvatarInvalid.WithCause(err)
	}
	if len(head) == 0 {
		return "", domain.ErrAvatarInvalid.WithDetails("empty file")
	}
	sniffed := http.DetectContentType(head)
	if sniffed != declared {
		return "", domain.ErrAvatarInvalid.WithDetails("content does not match " + declared)
	}

	id, err := domain.NewULID("")
	if err != nil {
		return "", err
	}
	name := sanitizeOwner(owner) + "-" + id + allowed[declared]

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(br, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if n > s.maxBytes {
		return "", domain.ErrAvatarTooLarge.WithDetails(fmt.Sprintf("limit is %d bytes", s.maxBytes))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	return path.Join(s.prefix, name), nil
}

// Remove deletes the stored file behind avatarURL. URLs outside the
// static prefix, such as Gravatar defaults, are left alone.
func (s *Store) Remove(_ context.Context, avatarURL string) error {
	dir, name := path.Split(avatarURL)
	if path.Clean(dir) != s.prefix || name == "" || strings.HasPrefix(name, ".") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}

// Default returns the Gravatar URL for email, with an identicon fallback.
func (s *Store) Default(email string) string {
	return GravatarURL(email)
}

// GravatarURL hashes the normalized address with SHA-256 as Gravatar expects.
func GravatarURL(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	q := url.Values{"d": {"identicon"}}
	return GravatarBaseURL + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}

func sanitizeOwner(owner string) string {
	var b strings.Builder
	for _, r := range owner {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
