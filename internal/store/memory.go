package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
)

// MemoryStore is an in-process implementation of the user and journal
// stores with the same uniqueness and not-found behavior as PostgresStore.
// It backs the service and handler tests.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	journals map[string]models.Journal
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		journals: make(map[string]models.Journal),
		now:      time.Now,
	}
}

// tick returns a strictly increasing timestamp so creation order is
// observable even within one clock tick.
func (s *MemoryStore) tick() time.Time {
	t := s.now().UTC()
	for _, j := range s.journals {
		if !t.After(j.CreatedAt) {
			t = j.CreatedAt.Add(time.Microsecond)
		}
	}
	return t
}

// ─── Users ───────────────────────────────────────────────────

// checkUnique reports a conflict if another user holds username or email.
func (s *MemoryStore) checkUnique(selfID, username string, email *string) error {
	for id, u := range s.users {
		if id == selfID {
			continue
		}
		if u.Username == username {
			return fmt.Errorf("%w: users_username_key", common.ErrConflict)
		}
		if email != nil && u.Email != nil && *u.Email == *email {
			return fmt.Errorf("%w: users_email_key", common.ErrConflict)
		}
	}
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique("", u.Username, u.Email); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	created := *u
	created.ID = uuid.New().String()
	if created.Avatar == "" {
		created.Avatar = models.DefaultAvatar
	}
	created.CreatedAt = s.now().UTC()
	created.UpdatedAt = created.CreatedAt
	s.users[created.ID] = created
	return &created, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *MemoryStore) FindUserByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var byEmail *models.User
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
		if u.Email != nil && *u.Email == email && byEmail == nil {
			found := u
			byEmail = &found
		}
	}
	if byEmail != nil {
		return byEmail, nil
	}
	return nil, common.ErrNotFound
}

func (s *MemoryStore) PromoteUser(_ context.Context, id, passwordHash, email, fullName string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("promote user: %w", common.ErrNotFound)
	}
	if err := s.checkUnique(id, u.Username, &email); err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	u.PasswordHash = passwordHash
	u.Email = &email
	u.FullName = fullName
	u.Status = models.StatusRegistered
	s.register(&u)
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, p models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("update user: %w", common.ErrNotFound)
	}
	u.FullName = p.FullName.OrElse(u.FullName)
	u.Username = p.Username.OrElse(u.Username)
	u.Email = p.Email.OrElse(u.Email)
	u.Bio = p.Bio.OrElse(u.Bio)
	u.Location = p.Location.OrElse(u.Location)
	u.Avatar = p.Avatar.OrElse(u.Avatar)
	if err := s.checkUnique(id, u.Username, u.Email); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	u.Status = models.StatusRegistered
	s.register(&u)
	s.users[id] = u
	return &u, nil
}

// register backfills the join date and bumps updated_at.
func (s *MemoryStore) register(u *models.User) {
	now := s.now().UTC()
	if u.JoinDate == nil {
		u.JoinDate = &now
	}
	u.UpdatedAt = now
}

// UserCount returns the number of stored users.
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// ─── Journals ────────────────────────────────────────────────

// cloneJournal copies the slices so callers cannot mutate stored rows.
func cloneJournal(j models.Journal) models.Journal {
	j.Locations = slices.Clone(j.Locations)
	j.Companions = slices.Clone(j.Companions)
	j.Highlights = slices.Clone(j.Highlights)
	j.Tags = slices.Clone(j.Tags)
	j.Normalize()
	return j
}

func (s *MemoryStore) CreateJournal(_ context.Context, j *models.Journal) (*models.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := cloneJournal(*j)
	created.ID = uuid.New().String()
	created.CreatedAt = s.tick()
	created.UpdatedAt = created.CreatedAt
	s.journals[created.ID] = created

	out := cloneJournal(created)
	return &out, nil
}

func (s *MemoryStore) ListJournals(_ context.Context) ([]models.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Journal, 0, len(s.journals))
	for _, j := range s.journals {
		out = append(out, cloneJournal(j))
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetJournal(_ context.Context, id string) (*models.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journals[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := cloneJournal(j)
	return &out, nil
}

func (s *MemoryStore) UpdateJournal(_ context.Context, id string, p models.JournalPatch) (*models.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journals[id]
	if !ok {
		return nil, fmt.Errorf("update journal: %w", common.ErrNotFound)
	}
	j.Name = p.Name.OrElse(j.Name)
	j.Locations = p.Locations.OrElse(j.Locations)
	j.StartDate = p.StartDate.OrElse(j.StartDate)
	j.EndDate = p.EndDate.OrElse(j.EndDate)
	j.Summary = p.Summary.OrElse(j.Summary)
	j.AISummary = p.AISummary.OrElse(j.AISummary)
	j.CoverImage = p.CoverImage.OrElse(j.CoverImage)
	j.CoverKey = p.CoverKey.OrElse(j.CoverKey)
	j.Rating = p.Rating.OrElse(j.Rating)
	j.Companions = p.Companions.OrElse(j.Companions)
	j.Highlights = p.Highlights.OrElse(j.Highlights)
	j.Tags = p.Tags.OrElse(j.Tags)
	j.UpdatedAt = s.now().UTC()

	j = cloneJournal(j)
	s.journals[id] = j
	out := cloneJournal(j)
	return &out, nil
}

func (s *MemoryStore) DeleteJournal(_ context.Context, id string) (*models.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journals[id]
	if !ok {
		return nil, fmt.Errorf("delete journal: %w", common.ErrNotFound)
	}
	delete(s.journals, id)
	return &j, nil
}

func (s *MemoryStore) CountJournals(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.journals), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
