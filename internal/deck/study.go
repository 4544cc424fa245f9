package deck

import (
	"context"
	"fmt"
)

// StudySession walks a snapshot of a deck's cards in order and records
// whether the learner knew each one. It is not safe for concurrent use.
type StudySession struct {
	deck  *Deck
	index int
	known []bool
	done  bool
}

// StudyResults summarises a finished pass over a deck.
type StudyResults struct {
	Total  int
	Known  int
	Review int
}

// StartStudy opens a study session over the deck's current cards.
func (s *DeckService) StartStudy(ctx context.Context, p Principal, deckID string) (*StudySession, error) {
	d, err := s.GetDeck(ctx, p, deckID)
	if err != nil {
		return nil, fmt.Errorf("starting study: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("starting study: deck %s: %w", deckID, ErrNotFound)
	}
	if len(d.Cards) == 0 {
		return nil, fmt.Errorf("starting study: deck %s: %w", deckID, ErrEmptyDeck)
	}

	s.logger.Debug("study started", "deck", deckID, "cards", len(d.Cards))
	return NewStudySession(d), nil
}

// NewStudySession returns a session over d's cards. d must have at least one card.
func NewStudySession(d *Deck) *StudySession {
	snapshot := d.Clone()
	return &StudySession{
		deck:  snapshot,
		known: make([]bool, 0, len(snapshot.Cards)),
	}
}

// Deck returns the deck being studied.
func (ss *StudySession) Deck() *Deck {
	return ss.deck
}

// Current returns the card awaiting an answer. After Done it returns the last card.
func (ss *StudySession) Current() Card {
	return ss.deck.Cards[ss.index]
}

// Position returns the 1-based number of the current card and the card total.
func (ss *StudySession) Position() (int, int) {
	return ss.index + 1, len(ss.deck.Cards)
}

// Answer records the learner's verdict on the current card and advances.
// Answers after the last card are ignored.
func (ss *StudySession) Answer(known bool) {
	if ss.done {
		return
	}
	ss.known = append(ss.known, known)
	if ss.index < len(ss.deck.Cards)-1 {
		ss.index++
		return
	}
	ss.done = true
}

// Done reports whether every card has been answered.
func (ss *StudySession) Done() bool {
	return ss.done
}

// Results counts the answers recorded so far. Review is measured against the
// whole deck, so unanswered cards count as needing review.
func (ss *StudySession) Results() StudyResults {
	r := StudyResults{Total: len(ss.deck.Cards)}
	for _, k := range ss.known {
		if k {
			r.Known++
		}
	}
	r.Review = r.Total - r.Known
	return r
}

// ReviewCards returns the answered cards the learner did not know.
func (ss *StudySession) ReviewCards() []Card {
	var out []Card
	for i, k := range ss.known {
		if !k {
			out = append(out, ss.deck.Cards[i])
		}
	}
	return out
}

// Restart clears all answers and returns to the first card.
func (ss *StudySession) Restart() {
	ss.index = 0
	ss.known = ss.known[:0]
	ss.done = false
}
