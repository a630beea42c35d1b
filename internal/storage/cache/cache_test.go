package cache

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	if _, ok, err := m.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := m.Set(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("Get(k) = %q, %v, %v", got, ok, err)
	}

	// Returned slices are copies.
	got[0] = 'x'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("Get() after Delete should miss")
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(10)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "short", []byte("a"), time.Second)
	_ = m.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "short"); ok {
		t.Error("entry should expire at its deadline")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after expired entry is evicted", m.Len())
	}

	now = now.Add(365 * 24 * time.Hour)
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Error("entry without ttl should not expire")
	}
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	_ = m.Set(ctx, "a", []byte("1"), time.Minute)
	_ = m.Set(ctx, "b", []byte("2"), time.Minute)
	_, _, _ = m.Get(ctx, "a") // a is now most recent
	_ = m.Set(ctx, "c", []byte("3"), time.Minute)

	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := m.Get(ctx, k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestBadger_InMemory(t *testing.T) {
	ctx := context.Background()
	b, err := NewBadger(BadgerConfig{}, nil)
	if err != nil {
		t.Fatalf("NewBadger() error = %v", err)
	}
	defer b.Close()

	if _, ok, err := b.Get(ctx, "user:a@example.com"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := b.Set(ctx, "user:a@example.com", []byte(`{"id":1}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := b.Get(ctx, "user:a@example.com")
	if err != nil || !ok || string(got) != `{"id":1}` {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
	if err := b.Delete(ctx, "user:a@example.com"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := b.Get(ctx, "user:a@example.com"); ok {
		t.Error("Get() after Delete should miss")
	}
}

func TestBadger_OnDiskCloseIsIdempotent(t *testing.T) {
	b, err := NewBadger(BadgerConfig{Dir: t.TempDir(), GCInterval: time.Hour}, nil)
	if err != nil {
		t.Fatalf("NewBadger() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestSealed_RoundTrip(t *testing.T) {
	for _, name := range []string{CipherAESGCM, CipherChaCha20, CipherAuto} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inner := NewMemory(10)
			s, err := NewSealed(inner, testKey(), name)
			if err != nil {
				t.Fatalf("NewSealed() error = %v", err)
			}

			plain := []byte("secret hash")
			if err := s.Set(ctx, "k", plain, time.Minute); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			raw, _, _ := inner.Get(ctx, "k")
			if bytes.Contains(raw, plain) {
				t.Error("backend holds plaintext")
			}

			got, ok, err := s.Get(ctx, "k")
			if err != nil || !ok || !bytes.Equal(got, plain) {
				t.Fatalf("Get() = %q, %v, %v", got, ok, err)
			}
		})
	}
}

func TestSealed_RejectsMovedAndTamperedValues(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory(10)
	s, err := NewSealed(inner, testKey(), CipherAESGCM)
	if err != nil {
		t.Fatalf("NewSealed() error = %v", err)
	}

	_ = s.Set(ctx, "a", []byte("value"), time.Minute)
	raw, _, _ := inner.Get(ctx, "a")

	// Same ciphertext under another key must not open.
	_ = inner.Set(ctx, "b", raw, time.Minute)
	if _, ok, err := s.Get(ctx, "b"); ok || err != nil {
		t.Errorf("Get(moved) = ok %v, err %v; want miss", ok, err)
	}
	if _, ok, _ := inner.Get(ctx, "b"); ok {
		t.Error("unreadable value should be dropped")
	}

	raw[len(raw)-1] ^= 0xFF
	_ = inner.Set(ctx, "a", raw, time.Minute)
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("tampered value should miss")
	}

	_ = inner.Set(ctx, "short", []byte{1, 2}, time.Minute)
	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("truncated value should miss")
	}
}

func TestNewSealed_Errors(t *testing.T) {
	if _, err := NewSealed(NewMemory(1), make([]byte, 16), CipherAESGCM); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := NewSealed(NewMemory(1), testKey(), "rot13"); err == nil {
		t.Error("expected error for unknown cipher")
	}
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Backend: BackendMemory, MaxEntries: 5}, nil)
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}
	if _, ok := c.(*Memory); !ok {
		t.Errorf("New(memory) = %T, want *Memory", c)
	}
	c.Close()

	c, err = New(ctx, Config{Backend: BackendBadger}, nil)
	if err != nil {
		t.Fatalf("New(badger) error = %v", err)
	}
	if _, ok := c.(*Badger); !ok {
		t.Errorf("New(badger) = %T, want *Badger", c)
	}
	c.Close()

	key := strings.Repeat("ab", 32)
	c, err = New(ctx, Config{EncryptionKey: key, Cipher: CipherChaCha20}, nil)
	if err != nil {
		t.Fatalf("New(sealed) error = %v", err)
	}
	sealed, ok := c.(*Sealed)
	if !ok {
		t.Fatalf("New(sealed) = %T, want *Sealed", c)
	}
	if sealed.CipherName() != CipherChaCha20 {
		t.Errorf("CipherName() = %q", sealed.CipherName())
	}
	c.Close()

	if _, err := New(ctx, Config{Backend: "memcached"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := New(ctx, Config{EncryptionKey: "not-hex"}, nil); err == nil {
		t.Error("expected error for invalid key")
	}
	if _, err := New(ctx, Config{Backend: BackendRedis}, nil); err == nil {
		t.Error("expected error for redis without addr")
	}
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("CONTACTS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CONTACTS_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	r, err := NewRedis(ctx, RedisConfig{Addr: addr, KeyPrefix: "contacts-test:"})
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	defer r.Close()

	key := "user:" + t.Name()
	defer r.Delete(ctx, key)

	if err := r.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := r.Get(ctx, key)
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
	if err := r.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := r.Get(ctx, key); ok {
		t.Error("Get() after Delete should miss")
	}
}
