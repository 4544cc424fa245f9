package testutil

import (
	"context"
	"sync"
	"testing"

	"flashdeck/internal/deck"
	"flashdeck/internal/store"
	"flashdeck/internal/store/migrations"
)

// NewTestStore creates an empty in-memory store.
func NewTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

// NewTestSQLiteStore creates an in-memory SQLite store with migrations applied.
// The store is automatically closed when the test completes.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	db, err := store.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	s := store.NewSQLiteStoreFromDB(db)
	t.Cleanup(func() { s.Close() })
	return s
}

// FaultyStore wraps a Store and fails selected methods with injected errors.
// A nil error passes the call through. Calls counts every method invocation.
type FaultyStore struct {
	deck.Store

	mu             sync.Mutex
	GetAllErr      error
	GetByIDErr     error
	CountErr       error
	SaveErr        error
	SaveBatchErr   error
	DeleteBatchErr error
	Calls          map[string]int
}

var _ deck.Store = (*FaultyStore)(nil)

// NewFaultyStore wraps inner with no faults injected.
func NewFaultyStore(inner deck.Store) *FaultyStore {
	return &FaultyStore{Store: inner, Calls: make(map[string]int)}
}

func (f *FaultyStore) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[method]++
}

// CallCount returns how many times method was invoked.
func (f *FaultyStore) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *FaultyStore) GetAll(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	f.record("GetAll")
	if f.GetAllErr != nil {
		return nil, f.GetAllErr
	}
	return f.Store.GetAll(ctx, ownerID)
}

func (f *FaultyStore) GetByID(ctx context.Context, id string) (*deck.Deck, error) {
	f.record("GetByID")
	if f.GetByIDErr != nil {
		return nil, f.GetByIDErr
	}
	return f.Store.GetByID(ctx, id)
}

func (f *FaultyStore) CountByParent(ctx context.Context, ownerID, parentID string) (int, error) {
	f.record("CountByParent")
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	return f.Store.CountByParent(ctx, ownerID, parentID)
}

func (f *FaultyStore) Save(ctx context.Context, d *deck.Deck) error {
	f.record("Save")
	if f.SaveErr != nil {
		return f.SaveErr
	}
	return f.Store.Save(ctx, d)
}

func (f *FaultyStore) SaveBatch(ctx context.Context, decks []*deck.Deck) error {
	f.record("SaveBatch")
	if f.SaveBatchErr != nil {
		return f.SaveBatchErr
	}
	return f.Store.SaveBatch(ctx, decks)
}

func (f *FaultyStore) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	return f.Store.Delete(ctx, id)
}

func (f *FaultyStore) DeleteBatch(ctx context.Context, ids []string) error {
	f.record("DeleteBatch")
	if f.DeleteBatchErr != nil {
		return f.DeleteBatchErr
	}
	return f.Store.DeleteBatch(ctx, ids)
}
