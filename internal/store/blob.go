package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"flashdeck/internal/deck"
)

// BlobStore keeps the whole collection as one JSON array in a single file.
// Every write rewrites the file through a temp file and rename, so a batch
// either lands completely or not at all. Ownership is not tracked: GetAll
// returns every deck regardless of ownerID.
type BlobStore struct {
	mu   sync.Mutex
	path string
}

var _ deck.Store = (*BlobStore)(nil)

// NewBlobStore opens the collection at path. When the file does not exist
// and seed is true, it is created with the sample decks.
func NewBlobStore(path string, seed bool, now time.Time) (*BlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	s := &BlobStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && seed {
		if err := s.write(deck.SampleDecks(now)); err != nil {
			return nil, fmt.Errorf("seeding blob store: %w", err)
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking blob file: %w", err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *BlobStore) Path() string {
	return s.path
}

func (s *BlobStore) GetAll(_ context.Context, _ string) ([]*deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *BlobStore) GetByID(_ context.Context, id string) (*deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, d := range decks {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, deck.ErrNotFound
}

// CountByParent is not served natively; callers fall back to a scan.
func (s *BlobStore) CountByParent(context.Context, string, string) (int, error) {
	return 0, deck.ErrUnsupported
}

func (s *BlobStore) Save(ctx context.Context, d *deck.Deck) error {
	return s.SaveBatch(ctx, []*deck.Deck{d})
}

func (s *BlobStore) SaveBatch(_ context.Context, batch []*deck.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := s.read()
	if err != nil {
		return err
	}

	pos := make(map[string]int, len(decks))
	for i, d := range decks {
		pos[d.ID] = i
	}
	for _, d := range batch {
		if i, ok := pos[d.ID]; ok {
			decks[i] = d.Clone()
			continue
		}
		pos[d.ID] = len(decks)
		decks = append(decks, d.Clone())
	}
	return s.write(decks)
}

func (s *BlobStore) Delete(ctx context.Context, id string) error {
	return s.DeleteBatch(ctx, []string{id})
}

func (s *BlobStore) DeleteBatch(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := s.read()
	if err != nil {
		return err
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := decks[:0]
	for _, d := range decks {
		if !drop[d.ID] {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(decks) {
		return nil
	}
	return s.write(kept)
}

func (s *BlobStore) Close() error { return nil }

// read loads the collection. A missing file is an empty collection.
func (s *BlobStore) read() ([]*deck.Deck, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*deck.Deck{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*deck.Deck{}, nil
	}

	var decks []*deck.Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("decoding blob %s: %w", s.path, err)
	}
	for _, d := range decks {
		if d.Cards == nil {
			d.Cards = []deck.Card{}
		}
	}
	return decks, nil
}

// write replaces the file atomically (temp file + rename).
func (s *BlobStore) write(decks []*deck.Deck) error {
	data, err := json.MarshalIndent(decks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding blob: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
