package deck

import "context"

// Store is the record store the DeckService reads and writes through.
// Implementations keep no cache between calls and always hand out copies.
type Store interface {
	// GetAll returns every deck belonging to ownerID. Stores that are not
	// owner-scoped return the whole collection. Returns an empty slice, not
	// an error, when there are no records.
	GetAll(ctx context.Context, ownerID string) ([]*Deck, error)

	// GetByID returns the deck with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Deck, error)

	// CountByParent counts ownerID's decks whose parent is parentID
	// ("" counts roots). Stores without a native aggregate return ErrUnsupported.
	CountByParent(ctx context.Context, ownerID, parentID string) (int, error)

	// Save upserts a full record. The last write wins.
	Save(ctx context.Context, d *Deck) error

	// SaveBatch upserts all decks or none of them.
	SaveBatch(ctx context.Context, decks []*Deck) error

	// Delete removes a deck. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteBatch removes all ids or none of them.
	DeleteBatch(ctx context.Context, ids []string) error

	// Close releases the underlying connection or file handles.
	Close() error
}
