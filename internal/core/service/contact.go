package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// Paging and birthday window limits.
const (
	DefaultPageSize     = 20
	MaxPageSize         = 100
	DefaultBirthdayDays = 7
	MaxBirthdayDays     = 366
)

// ContactRepository stores contacts. Every method is scoped to the owning
// user; rows owned by other users behave as if absent and yield
// domain.ErrContactNotFound.
type ContactRepository interface {
	Create(ctx context.Context, c *domain.Contact) error
	Get(ctx context.Context, userID, id int64) (*domain.Contact, error)
	List(ctx context.Context, userID int64, offset, limit int) ([]*domain.Contact, int, error)
	Search(ctx context.Context, userID int64, filter domain.ContactFilter) ([]*domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact) error
	Delete(ctx context.Context, userID, id int64) (*domain.Contact, error)
	ListWithBirthday(ctx context.Context, userID int64) ([]*domain.Contact, error)
}

// ContactService implements per-user contact management.
type ContactService struct {
	repo ContactRepository
	now  func() time.Time
	loc  *time.Location
}

// ContactServiceOption configures a ContactService.
type ContactServiceOption func(*ContactService)

// WithClock overrides the clock used for birthday calculations.
func WithClock(now func() time.Time) ContactServiceOption {
	return func(s *ContactService) { s.now = now }
}

// WithLocation sets the time zone that defines "today" (default: UTC).
func WithLocation(loc *time.Location) ContactServiceOption {
	return func(s *ContactService) { s.loc = loc }
}

// NewContactService creates a ContactService.
func NewContactService(repo ContactRepository, opts ...ContactServiceOption) *ContactService {
	s := &ContactService{repo: repo, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListResult is one page of contacts.
type ListResult struct {
	Items    []*domain.Contact
	Total    int
	Page     int
	PageSize int
}

// UpcomingBirthday is a contact together with its next birthday.
type UpcomingBirthday struct {
	Contact   *domain.Contact
	Date      domain.Date
	DaysUntil int
}

// Create adds a contact owned by userID.
func (s *ContactService) Create(ctx context.Context, userID int64, in domain.ContactInput) (*domain.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &domain.Contact{UserID: userID}
	c.Apply(in)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, storageError(err)
	}
	return c, nil
}

// Get returns one contact of userID.
func (s *ContactService) Get(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	c, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, storageError(err)
	}
	return c, nil
}

// List returns a page of userID's contacts ordered by id.
// page is 1-based; out-of-range values are clamped.
func (s *ContactService) List(ctx context.Context, userID int64, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.repo.List(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, storageError(err)
	}
	return &ListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Search returns userID's contacts matching every set field of filter.
func (s *ContactService) Search(ctx context.Context, userID int64, filter domain.ContactFilter) ([]*domain.Contact, error) {
	filter.Normalize()
	if filter.IsEmpty() {
		return nil, domain.ErrSearchCriteria
	}
	items, err := s.repo.Search(ctx, userID, filter)
	if err != nil {
		return nil, storageError(err)
	}
	return items, nil
}

// Update replaces the writable fields of a contact of userID.
func (s *ContactService) Update(ctx context.Context, userID, id int64, in domain.ContactInput) (*domain.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &domain.Contact{ID: id, UserID: userID}
	c.Apply(in)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, storageError(err)
	}
	return c, nil
}

// Delete removes a contact of userID and returns it.
func (s *ContactService) Delete(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	c, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return nil, storageError(err)
	}
	return c, nil
}

// UpcomingBirthdays returns userID's contacts whose birthday falls within
// the next days days, today included, ordered by date.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]UpcomingBirthday, error) {
	if days == 0 {
		days = DefaultBirthdayDays
	}
	if days < 0 || days > MaxBirthdayDays {
		return nil, domain.ErrBadRequest.WithDetails("days must be between 1 and 366")
	}

	contacts, err := s.repo.ListWithBirthday(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	today := domain.DateOf(s.now().In(s.loc))
	end := today.AddDays(days)
	result := make([]UpcomingBirthday, 0)
	for _, c := range contacts {
		if c.Birthday.IsZero() {
			continue
		}
		next := c.Birthday.NextAnniversary(today)
		if next.After(end) {
			continue
		}
		result = append(result, UpcomingBirthday{Contact: c, Date: next, DaysUntil: today.DaysUntil(next)})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DaysUntil != result[j].DaysUntil {
			return result[i].DaysUntil < result[j].DaysUntil
		}
		return result[i].Contact.ID < result[j].Contact.ID
	})
	return result, nil
}

// IsNotFound reports whether err means the contact is absent or not owned.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrContactNotFound)
}
