package store

import (
	"context"
	"sync"

	"flashdeck/internal/deck"
)

// MemoryStore keeps decks in a map. It is owner-scoped and safe for
// concurrent use. Intended for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	decks map[string]*deck.Deck
}

var _ deck.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{decks: make(map[string]*deck.Deck)}
}

func (s *MemoryStore) GetAll(_ context.Context, ownerID string) ([]*deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*deck.Deck, 0, len(s.decks))
	for _, d := range s.decks {
		if d.OwnerID == ownerID {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.decks[id]
	if !ok {
		return nil, deck.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *MemoryStore) CountByParent(_ context.Context, ownerID, parentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.decks {
		if d.OwnerID == ownerID && d.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Save(_ context.Context, d *deck.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decks[d.ID] = d.Clone()
	return nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, decks []*deck.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range decks {
		s.decks[d.ID] = d.Clone()
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.decks, id)
	return nil
}

func (s *MemoryStore) DeleteBatch(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.decks, id)
	}
	return nil
}

// Len returns the number of stored decks across all owners.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decks)
}

func (s *MemoryStore) Close() error { return nil }
