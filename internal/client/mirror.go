package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/ayush/travel-journal/backend/internal/models"
)

// ErrBusy is returned when a mutation is submitted while another is in
// flight.
var ErrBusy = errors.New("client: another request is in flight")

// JournalAPI is the subset of API the mirror needs.
type JournalAPI interface {
	ListJournals(ctx context.Context) ([]models.Journal, error)
	CreateJournal(ctx context.Context, in models.JournalInput) (*models.Journal, error)
	UpdateJournal(ctx context.Context, id string, req models.UpdateJournalRequest) (*models.Journal, error)
	DeleteJournal(ctx context.Context, id string) (*models.Journal, error)
}

// JournalMirror holds a local, newest-first copy of the server's journals.
// Local state only changes after the server confirms a mutation; a failed
// call leaves it as it was. Nothing is retried.
type JournalMirror struct {
	api JournalAPI

	mu      sync.Mutex
	entries []models.Journal
	busy    bool
}

func NewJournalMirror(api JournalAPI) *JournalMirror {
	return &JournalMirror{api: api}
}

// Load replaces the local state with the server's list.
func (m *JournalMirror) Load(ctx context.Context) error {
	list, err := m.api.ListJournals(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries = list
	m.mu.Unlock()
	return nil
}

// Entries returns a copy of the local state.
func (m *JournalMirror) Entries() []models.Journal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Busy reports whether a mutation is in flight. A create may take several
// seconds while the server generates the summary.
func (m *JournalMirror) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

func (m *JournalMirror) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.busy = true
	return nil
}

func (m *JournalMirror) end() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

// locked runs fn with mu held and releases it even if fn panics.
func (m *JournalMirror) locked(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// Create inserts the server's row at the front once it is returned.
func (m *JournalMirror) Create(ctx context.Context, in models.JournalInput) (*models.Journal, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	j, err := m.api.CreateJournal(ctx, in)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrEmptyResponse
	}
	m.locked(func() {
		m.entries = slices.Insert(m.entries, 0, *j)
	})
	return j, nil
}

// Update replaces the local copy with the server's row. A row that is not
// held locally is inserted at the front.
func (m *JournalMirror) Update(ctx context.Context, id string, req models.UpdateJournalRequest) (*models.Journal, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	j, err := m.api.UpdateJournal(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrEmptyResponse
	}
	m.locked(func() {
		if i := m.index(j.ID); i >= 0 {
			m.entries[i] = *j
		} else {
			m.entries = slices.Insert(m.entries, 0, *j)
		}
	})
	return j, nil
}

// Delete removes the entry locally after the server confirms it.
func (m *JournalMirror) Delete(ctx context.Context, id string) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	if _, err := m.api.DeleteJournal(ctx, id); err != nil {
		return err
	}
	m.locked(func() {
		if i := m.index(id); i >= 0 {
			m.entries = slices.Delete(m.entries, i, i+1)
		}
	})
	return nil
}

// index must be called with mu held.
func (m *JournalMirror) index(id string) int {
	return slices.IndexFunc(m.entries, func(j models.Journal) bool { return j.ID == id })
}
