package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int64
	lookups int
	err     error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrUserExists
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, userID int64, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.RefreshTokenHash = tokenHash
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *mockUserRepo) Confirm(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Confirmed = true
	return nil
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, email, url string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Avatar = url
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) stored(email string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email]
}

// mockCache is an in-memory SessionCache that ignores TTLs but records them.
type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	lastTTL time.Duration
	getErr  error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.lastTTL = ttl
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// sentMail records a confirmation email.
type sentMail struct {
	to, username, baseURL, token string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mockMailer) SendConfirmation(ctx context.Context, to, username, baseURL, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, username, baseURL, token})
	return nil
}

func (m *mockMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type mockAvatars struct {
	saved   map[string][]byte
	uploads int
	removed []string
}

func (a *mockAvatars) Save(ctx context.Context, owner, contentType string, r io.Reader) (string, error) {
	if contentType != "image/png" {
		return "", domain.ErrAvatarInvalid
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if a.saved == nil {
		a.saved = make(map[string][]byte)
	}
	a.saved[owner] = data
	a.uploads++
	return fmt.Sprintf("/static/avatars/%s-%d.png", owner, a.uploads), nil
}

func (a *mockAvatars) Remove(ctx context.Context, url string) error {
	a.removed = append(a.removed, url)
	return nil
}

func (a *mockAvatars) Default(email string) string {
	return "https://gravatar.test/" + email
}

// recorder counts events.
type countingRecorder struct {
	mu     sync.Mutex
	hits   int
	misses int
	events map[string]int
}

func (r *countingRecorder) CacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *countingRecorder) AuthEvent(event, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string]int)
	}
	r.events[event+"/"+result]++
}

// mockContactRepo is an in-memory ContactRepository.
type mockContactRepo struct {
	mu       sync.Mutex
	contacts map[int64]*domain.Contact
	nextID   int64
}

func newMockContactRepo() *mockContactRepo {
	return &mockContactRepo{contacts: make(map[int64]*domain.Contact)}
}

func (m *mockContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *mockContactRepo) Get(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockContactRepo) owned(userID int64) []*domain.Contact {
	var out []*domain.Contact
	for _, c := range m.contacts {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockContactRepo) List(ctx context.Context, userID int64, offset, limit int) ([]*domain.Contact, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.owned(userID)
	if offset >= len(all) {
		return []*domain.Contact{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *mockContactRepo) Search(ctx context.Context, userID int64, f domain.ContactFilter) ([]*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Contact
	for _, c := range m.owned(userID) {
		if f.Name != "" && !strings.EqualFold(c.Name, f.Name) {
			continue
		}
		if f.Surname != "" && !strings.EqualFold(c.Surname, f.Surname) {
			continue
		}
		if f.Email != "" && !strings.EqualFold(c.Email, f.Email) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockContactRepo) Update(ctx context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.contacts[c.ID]
	if !ok || existing.UserID != c.UserID {
		return domain.ErrContactNotFound
	}
	c.CreatedAt = existing.CreatedAt
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *mockContactRepo) Delete(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrContactNotFound
	}
	delete(m.contacts, id)
	return c, nil
}

func (m *mockContactRepo) ListWithBirthday(ctx context.Context, userID int64) ([]*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Contact
	for _, c := range m.owned(userID) {
		if !c.Birthday.IsZero() {
			out = append(out, c)
		}
	}
	return out, nil
}
