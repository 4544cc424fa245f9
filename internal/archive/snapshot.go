package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"flashdeck/internal/deck"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// Snapshot is an exported deck library.
type Snapshot struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exportedAt"`
	Owner      string       `json:"owner,omitempty"`
	Decks      []*deck.Deck `json:"decks"`
}

// NewSnapshot wraps decks in a current-version snapshot.
func NewSnapshot(decks []*deck.Deck, owner string, at time.Time) *Snapshot {
	if decks == nil {
		decks = []*deck.Deck{}
	}
	return &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: at,
		Owner:      owner,
		Decks:      decks,
	}
}

// CardCount returns the total number of cards across all decks.
func (s *Snapshot) CardCount() int {
	n := 0
	for _, d := range s.Decks {
		n += len(d.Cards)
	}
	return n
}

// Encode writes s as indented JSON.
func Encode(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot, rejecting formats newer than this binary understands.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version < 1 || s.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	for _, d := range s.Decks {
		if d.Cards == nil {
			d.Cards = []deck.Card{}
		}
	}
	return &s, nil
}
