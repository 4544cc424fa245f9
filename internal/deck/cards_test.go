package deck_test

import (
	"context"
	"errors"
	"testing"

	"flashdeck/internal/deck"
	"flashdeck/internal/testutil"
)

func TestDeckService_Cards(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips add, update and delete", func(t *testing.T) {
		f := newService(t, testutil.NewTestStore(t), deck.ModeLocal)
		d := f.create(t, deck.Anonymous, "Capitals", "")

		d, err := f.svc.AddCardToDeck(ctx, deck.Anonymous, d.ID, deck.CardInput{Question: "France?", Answer: "Paris"})
		if err != nil {
			t.Fatalf("AddCardToDeck() error = %v", err)
		}
		d, err = f.svc.AddCardToDeck(ctx, deck.Anonymous, d.ID, deck.CardInput{Question: "Spain?", Answer: "Barcelona"})
		if err != nil {
			t.Fatalf("AddCardToDeck() error = %v", err)
		}
		if len(d.Cards) != 2 {
			t.Fatalf("len(Cards) = %d, want 2", len(d.Cards))
		}
		first, second := d.Cards[0], d.Cards[1]
		if first.ID == second.ID {
			t.Fatalf("card ids collide: %s", first.ID)
		}

		if _, err := f.svc.UpdateCardInDeck(ctx, deck.Anonymous, d.ID, second.ID, deck.CardInput{Question: "Spain?", Answer: "Madrid"}); err != nil {
			t.Fatalf("UpdateCardInDeck() error = %v", err)
		}
		if _, err := f.svc.DeleteCardFromDeck(ctx, deck.Anonymous, d.ID, first.ID); err != nil {
			t.Fatalf("DeleteCardFromDeck() error = %v", err)
		}

		stored, err := f.svc.GetDeck(ctx, deck.Anonymous, d.ID)
		if err != nil {
			t.Fatalf("GetDeck() error = %v", err)
		}
		if len(stored.Cards) != 1 {
			t.Fatalf("len(Cards) = %d, want 1", len(stored.Cards))
		}
		got := stored.Cards[0]
		if got.ID != second.ID || got.Question != "Spain?" || got.Answer != "Madrid" {
			t.Errorf("card = %+v, want updated Spain card", got)
		}
	})

	t.Run("skips generated ids already used by a card", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		_ = s.Save(ctx, &deck.Deck{ID: "d", Title: "D", Cards: []deck.Card{{ID: "id-1", Question: "q", Answer: "a"}}})
		f := newService(t, s, deck.ModeLocal)

		d, err := f.svc.AddCardToDeck(ctx, deck.Anonymous, "d", deck.CardInput{Question: "q2", Answer: "a2"})
		if err != nil {
			t.Fatalf("AddCardToDeck() error = %v", err)
		}
		if d.Cards[1].ID != "id-2" {
			t.Errorf("new card id = %q, want id-2", d.Cards[1].ID)
		}
	})

	t.Run("update of missing card returns not found", func(t *testing.T) {
		f := newService(t, testutil.NewTestStore(t), deck.ModeLocal)
		d := f.create(t, deck.Anonymous, "Capitals", "")
		_, err := f.svc.UpdateCardInDeck(ctx, deck.Anonymous, d.ID, "missing", deck.CardInput{Question: "q", Answer: "a"})
		if !errors.Is(err, deck.ErrNotFound) {
			t.Errorf("UpdateCardInDeck() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete of missing card does not write", func(t *testing.T) {
		faulty := testutil.NewFaultyStore(testutil.NewTestStore(t))
		f := newService(t, faulty, deck.ModeLocal)
		d := f.create(t, deck.Anonymous, "Capitals", "")
		saves := faulty.CallCount("Save")

		got, err := f.svc.DeleteCardFromDeck(ctx, deck.Anonymous, d.ID, "missing")
		if err != nil {
			t.Fatalf("DeleteCardFromDeck() error = %v", err)
		}
		if got == nil || got.ID != d.ID {
			t.Errorf("DeleteCardFromDeck() = %v, want the deck", got)
		}
		if faulty.CallCount("Save") != saves {
			t.Error("expected no Save for a missing card")
		}
	})

	t.Run("card operations on unknown deck return not found", func(t *testing.T) {
		f := newService(t, testutil.NewTestStore(t), deck.ModeLocal)
		_, err := f.svc.AddCardToDeck(ctx, deck.Anonymous, "missing", deck.CardInput{Question: "q", Answer: "a"})
		if !errors.Is(err, deck.ErrNotFound) {
			t.Errorf("AddCardToDeck() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("refuses cards on another owner's deck", func(t *testing.T) {
		f := newService(t, testutil.NewTestStore(t), deck.ModeRemote)
		d := f.create(t, alice, "Private", "")

		_, err := f.svc.AddCardToDeck(ctx, bob, d.ID, deck.CardInput{Question: "q", Answer: "a"})
		if !errors.Is(err, deck.ErrForbidden) {
			t.Errorf("AddCardToDeck() error = %v, want ErrForbidden", err)
		}
		stored, _ := f.svc.GetDeck(ctx, alice, d.ID)
		if len(stored.Cards) != 0 {
			t.Errorf("len(Cards) = %d, want 0", len(stored.Cards))
		}
	})
}
