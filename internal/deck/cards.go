package deck

import (
	"context"
	"fmt"
)

// AddCardToDeck appends a new card with a generated id to the deck.
func (s *DeckService) AddCardToDeck(ctx context.Context, p Principal, deckID string, in CardInput) (*Deck, error) {
	d, err := s.fetchOwned(ctx, p, deckID)
	if err != nil {
		return nil, fmt.Errorf("adding card: %w", err)
	}

	now := s.clock.Now()
	card := Card{
		ID:        s.newCardID(d),
		Question:  in.Question,
		Answer:    in.Answer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.Cards = append(d.Cards, card)

	if err := s.saveTouched(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("card added", "deck", deckID, "card", card.ID)
	return d, nil
}

// UpdateCardInDeck replaces the question and answer of an existing card.
// A missing card fails with ErrNotFound.
func (s *DeckService) UpdateCardInDeck(ctx context.Context, p Principal, deckID, cardID string, in CardInput) (*Deck, error) {
	d, err := s.fetchOwned(ctx, p, deckID)
	if err != nil {
		return nil, fmt.Errorf("updating card: %w", err)
	}

	i := d.cardIndex(cardID)
	if i < 0 {
		return nil, fmt.Errorf("updating card: card %s in deck %s: %w", cardID, deckID, ErrNotFound)
	}
	d.Cards[i].Question = in.Question
	d.Cards[i].Answer = in.Answer
	d.Cards[i].UpdatedAt = s.clock.Now()

	if err := s.saveTouched(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("card updated", "deck", deckID, "card", cardID)
	return d, nil
}

// DeleteCardFromDeck removes a card. Removing a card that is not in the deck
// is a no-op that still returns the deck.
func (s *DeckService) DeleteCardFromDeck(ctx context.Context, p Principal, deckID, cardID string) (*Deck, error) {
	d, err := s.fetchOwned(ctx, p, deckID)
	if err != nil {
		return nil, fmt.Errorf("deleting card: %w", err)
	}

	i := d.cardIndex(cardID)
	if i < 0 {
		return d, nil
	}
	kept := make([]Card, 0, len(d.Cards)-1)
	kept = append(kept, d.Cards[:i]...)
	kept = append(kept, d.Cards[i+1:]...)
	d.Cards = kept

	if err := s.saveTouched(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("card deleted", "deck", deckID, "card", cardID)
	return d, nil
}

// saveTouched refreshes UpdatedAt and persists the whole deck.
func (s *DeckService) saveTouched(ctx context.Context, d *Deck) error {
	d.UpdatedAt = s.clock.Now()
	if err := s.store.Save(ctx, d); err != nil {
		return storeFailure("saving deck", err)
	}
	return nil
}

// newCardID returns a generated id that does not collide with any card in d.
func (s *DeckService) newCardID(d *Deck) string {
	for {
		id := s.idgen.New()
		if d.cardIndex(id) < 0 {
			return id
		}
	}
}
