package deck

import "errors"

var (
	// ErrNotFound is returned when a referenced deck or card does not exist.
	ErrNotFound = errors.New("flashdeck: not found")

	// ErrForbidden is returned when the acting principal does not own the target deck.
	ErrForbidden = errors.New("flashdeck: forbidden")

	// ErrUnauthenticated is returned when an operation that needs a principal has none.
	ErrUnauthenticated = errors.New("flashdeck: unauthenticated")

	// ErrStoreFailure wraps failures of the underlying record store.
	ErrStoreFailure = errors.New("flashdeck: store failure")

	// ErrCycle is returned when re-parenting would make a deck its own ancestor.
	ErrCycle = errors.New("flashdeck: deck cannot be moved under itself")

	// ErrUnsupported is returned by stores that do not implement an optional fast path.
	ErrUnsupported = errors.New("flashdeck: operation not supported by store")

	// ErrEmptyDeck is returned when a study session is started on a deck without cards.
	ErrEmptyDeck = errors.New("flashdeck: deck has no cards")
)
