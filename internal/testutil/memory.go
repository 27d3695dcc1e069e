package testutil

import (
	"context"
	"sync"
	"time"

	"linguo/internal/domain"
	"linguo/internal/repository"
)

// MemoryHistory is an in-memory document store with live queries.
// Every change re-emits the full, newest-first list to subscribers of the identity.
type MemoryHistory struct {
	mu           sync.Mutex
	entries      map[string]domain.HistoryEntry
	subs         map[*memorySubscription]struct{}
	now          time.Time
	AppendErr    error
	DeleteErr    error
	SubscribeErr error
	Appends      int
}

// NewMemoryHistory creates an empty store; timestamps start at start and grow by one second per append
func NewMemoryHistory(start time.Time) *MemoryHistory {
	return &MemoryHistory{
		entries: make(map[string]domain.HistoryEntry),
		subs:    make(map[*memorySubscription]struct{}),
		now:     start,
	}
}

func (h *MemoryHistory) Append(_ context.Context, entry domain.HistoryEntry) (*domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.AppendErr != nil {
		return nil, h.AppendErr
	}
	h.now = h.now.Add(time.Second)
	entry.CreatedAt = h.now
	h.entries[entry.ID] = entry
	h.Appends++
	h.publishLocked(entry.IdentityID)
	return &entry, nil
}

func (h *MemoryHistory) Delete(_ context.Context, identityID, entryID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.DeleteErr != nil {
		return h.DeleteErr
	}
	e, ok := h.entries[entryID]
	if !ok || e.IdentityID != identityID {
		return repository.ErrHistoryEntryNotFound
	}
	delete(h.entries, entryID)
	h.publishLocked(identityID)
	return nil
}

func (h *MemoryHistory) ListByIdentity(_ context.Context, identityID string) ([]domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listLocked(identityID), nil
}

// Subscribe opens a live query; the first snapshot is delivered immediately
func (h *MemoryHistory) Subscribe(_ context.Context, identityID string) (repository.HistorySubscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SubscribeErr != nil {
		return nil, h.SubscribeErr
	}
	s := &memorySubscription{
		store:      h,
		identityID: identityID,
		snapshots:  make(chan []domain.HistoryEntry, 1),
		errors:     make(chan error, 1),
	}
	h.subs[s] = struct{}{}
	s.deliver(h.listLocked(identityID))
	return s, nil
}

// Fail reports err to every open subscription
func (h *MemoryHistory) Fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.errors <- err:
		default:
		}
	}
}

// OpenSubscriptions returns the number of subscriptions not yet closed
func (h *MemoryHistory) OpenSubscriptions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *MemoryHistory) listLocked(identityID string) []domain.HistoryEntry {
	out := []domain.HistoryEntry{}
	for _, e := range h.entries {
		if e.IdentityID == identityID {
			out = append(out, e)
		}
	}
	domain.SortNewestFirst(out)
	return out
}

func (h *MemoryHistory) publishLocked(identityID string) {
	for s := range h.subs {
		if s.identityID == identityID {
			s.deliver(h.listLocked(identityID))
		}
	}
}

type memorySubscription struct {
	store      *MemoryHistory
	identityID string
	snapshots  chan []domain.HistoryEntry
	errors     chan error
	once       sync.Once
}

func (s *memorySubscription) Snapshots() <-chan []domain.HistoryEntry { return s.snapshots }

func (s *memorySubscription) Errors() <-chan error { return s.errors }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs, s)
		s.store.mu.Unlock()
		close(s.snapshots)
		close(s.errors)
	})
	return nil
}

// deliver replaces any unread snapshot with the latest one; caller holds store.mu
func (s *memorySubscription) deliver(entries []domain.HistoryEntry) {
	select {
	case <-s.snapshots:
	default:
	}
	s.snapshots <- entries
}
