package deck

import "time"

// DefaultColor is applied to decks created without a colour.
const DefaultColor = "#ffcb91"

// Deck is a node in the deck tree. Decks are stored as a flat collection;
// the tree edges are the ParentID back-references.
type Deck struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parentId"` // empty for a root deck
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     string    `json:"ownerId,omitempty"`
	Cards       []Card    `json:"cards"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Card is a question/answer pair embedded in exactly one deck.
type Card struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// PathEntry is one breadcrumb element returned by GetPath.
type PathEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IsRoot reports whether the deck has no parent.
func (d *Deck) IsRoot() bool {
	return d.ParentID == ""
}

// Clone returns a deep copy of the deck so callers never share card slices
// with a store or with each other.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	c := *d
	c.Cards = make([]Card, len(d.Cards))
	copy(c.Cards, d.Cards)
	return &c
}

// cardIndex returns the position of the card with the given id, or -1.
func (d *Deck) cardIndex(cardID string) int {
	for i := range d.Cards {
		if d.Cards[i].ID == cardID {
			return i
		}
	}
	return -1
}

// DeckInput carries the user-supplied fields for a new deck.
type DeckInput struct {
	Title       string
	Description string
	Color       string
}

// DeckPatch is a partial update. Nil fields are left untouched.
// A non-nil ParentID pointing at "" moves the deck to the root.
type DeckPatch struct {
	Title       *string
	Description *string
	Color       *string
	ParentID    *string
	Cards       []Card // nil leaves the cards unchanged
}

// CardInput carries the question and answer for a card.
type CardInput struct {
	Question string
	Answer   string
}

// CloneAll deep-copies a slice of decks.
func CloneAll(decks []*Deck) []*Deck {
	out := make([]*Deck, len(decks))
	for i, d := range decks {
		out[i] = d.Clone()
	}
	return out
}
