package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"flashdeck/internal/deck"
)

var testTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newDeck(id, owner, parent, title string) *deck.Deck {
	return &deck.Deck{
		ID:        id,
		OwnerID:   owner,
		ParentID:  parent,
		Title:     title,
		Color:     deck.DefaultColor,
		Cards:     []deck.Card{},
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func assertDeckEqual(t *testing.T, got, want *deck.Deck) {
	t.Helper()
	if got == nil {
		t.Fatalf("deck = nil, want %q", want.ID)
	}
	if got.ID != want.ID || got.OwnerID != want.OwnerID || got.ParentID != want.ParentID ||
		got.Title != want.Title || got.Description != want.Description || got.Color != want.Color {
		t.Errorf("deck = %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
	}
	if len(got.Cards) != len(want.Cards) {
		t.Fatalf("len(Cards) = %d, want %d", len(got.Cards), len(want.Cards))
	}
	for i := range want.Cards {
		g, w := got.Cards[i], want.Cards[i]
		if g.ID != w.ID || g.Question != w.Question || g.Answer != w.Answer {
			t.Errorf("Cards[%d] = %+v, want %+v", i, g, w)
		}
	}
}

func idSet(decks []*deck.Deck) map[string]bool {
	out := make(map[string]bool, len(decks))
	for _, d := range decks {
		out[d.ID] = true
	}
	return out
}

type storeTraits struct {
	ownerScoped bool
	counts      bool
}

// runStoreContract exercises the behaviour every deck.Store must share.
func runStoreContract(t *testing.T, open func(t *testing.T) deck.Store, traits storeTraits) {
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		s := open(t)
		got, err := s.GetAll(ctx, "alice")
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("GetAll() = %v, want empty non-nil slice", got)
		}
	})

	t.Run("get missing deck", func(t *testing.T) {
		s := open(t)
		_, err := s.GetByID(ctx, "nope")
		if !errors.Is(err, deck.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("save then get round trips the record", func(t *testing.T) {
		s := open(t)
		d := newDeck("d1", "alice", "", "Math")
		d.Description = "numbers"
		d.Cards = []deck.Card{{ID: "c1", Question: "1+1?", Answer: "2", CreatedAt: testTime, UpdatedAt: testTime}}

		if err := s.Save(ctx, d); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := s.GetByID(ctx, "d1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		assertDeckEqual(t, got, d)
	})

	t.Run("returned decks are copies", func(t *testing.T) {
		s := open(t)
		d := newDeck("d1", "alice", "", "Math")
		if err := s.Save(ctx, d); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		d.Title = "changed after save"

		got, _ := s.GetByID(ctx, "d1")
		got.Title = "changed after get"
		got.Cards = append(got.Cards, deck.Card{ID: "x"})

		again, err := s.GetByID(ctx, "d1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if again.Title != "Math" || len(again.Cards) != 0 {
			t.Errorf("stored deck was mutated through a copy: %+v", again)
		}
	})

	t.Run("save overwrites the full record", func(t *testing.T) {
		s := open(t)
		if err := s.Save(ctx, newDeck("d1", "alice", "", "Math")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		second := newDeck("d1", "alice", "p1", "Algebra")
		if err := s.Save(ctx, second); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, _ := s.GetByID(ctx, "d1")
		assertDeckEqual(t, got, second)

		all, _ := s.GetAll(ctx, "alice")
		if len(all) != 1 {
			t.Errorf("len(GetAll()) = %d, want 1", len(all))
		}
	})

	t.Run("save batch and list", func(t *testing.T) {
		s := open(t)
		batch := []*deck.Deck{
			newDeck("a", "alice", "", "A"),
			newDeck("b", "alice", "a", "B"),
			newDeck("c", "alice", "b", "C"),
		}
		if err := s.SaveBatch(ctx, batch); err != nil {
			t.Fatalf("SaveBatch() error = %v", err)
		}
		all, err := s.GetAll(ctx, "alice")
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		ids := idSet(all)
		if len(ids) != 3 || !ids["a"] || !ids["b"] || !ids["c"] {
			t.Errorf("GetAll() ids = %v, want a, b, c", ids)
		}
	})

	if traits.ownerScoped {
		t.Run("get all is scoped to owner", func(t *testing.T) {
			s := open(t)
			err := s.SaveBatch(ctx, []*deck.Deck{
				newDeck("a", "alice", "", "A"),
				newDeck("b", "bob", "", "B"),
			})
			if err != nil {
				t.Fatalf("SaveBatch() error = %v", err)
			}
			all, _ := s.GetAll(ctx, "alice")
			if ids := idSet(all); len(ids) != 1 || !ids["a"] {
				t.Errorf("GetAll(alice) ids = %v, want only a", ids)
			}
		})
	}

	t.Run("count by parent", func(t *testing.T) {
		s := open(t)
		err := s.SaveBatch(ctx, []*deck.Deck{
			newDeck("root", "alice", "", "Root"),
			newDeck("k1", "alice", "root", "K1"),
			newDeck("k2", "alice", "root", "K2"),
			newDeck("k3", "alice", "root", "K3"),
			newDeck("g1", "alice", "k1", "G1"),
		})
		if err != nil {
			t.Fatalf("SaveBatch() error = %v", err)
		}

		n, err := s.CountByParent(ctx, "alice", "root")
		if !traits.counts {
			if !errors.Is(err, deck.ErrUnsupported) {
				t.Errorf("CountByParent() error = %v, want ErrUnsupported", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("CountByParent() error = %v", err)
		}
		if n != 3 {
			t.Errorf("CountByParent(root) = %d, want 3", n)
		}
		if n, _ := s.CountByParent(ctx, "alice", ""); n != 1 {
			t.Errorf("CountByParent(roots) = %d, want 1", n)
		}
	})

	t.Run("count follows re-parenting", func(t *testing.T) {
		if !traits.counts {
			t.Skip("store has no native count")
		}
		s := open(t)
		_ = s.SaveBatch(ctx, []*deck.Deck{
			newDeck("p1", "alice", "", "P1"),
			newDeck("p2", "alice", "", "P2"),
			newDeck("k", "alice", "p1", "K"),
		})
		if err := s.Save(ctx, newDeck("k", "alice", "p2", "K")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if n, _ := s.CountByParent(ctx, "alice", "p1"); n != 0 {
			t.Errorf("CountByParent(p1) = %d, want 0", n)
		}
		if n, _ := s.CountByParent(ctx, "alice", "p2"); n != 1 {
			t.Errorf("CountByParent(p2) = %d, want 1", n)
		}
	})

	t.Run("delete batch removes only listed ids", func(t *testing.T) {
		s := open(t)
		_ = s.SaveBatch(ctx, []*deck.Deck{
			newDeck("a", "alice", "", "A"),
			newDeck("b", "alice", "a", "B"),
			newDeck("c", "alice", "", "C"),
		})
		if err := s.DeleteBatch(ctx, []string{"a", "b"}); err != nil {
			t.Fatalf("DeleteBatch() error = %v", err)
		}
		all, _ := s.GetAll(ctx, "alice")
		if ids := idSet(all); len(ids) != 1 || !ids["c"] {
			t.Errorf("GetAll() ids = %v, want only c", ids)
		}
		if _, err := s.GetByID(ctx, "a"); !errors.Is(err, deck.ErrNotFound) {
			t.Errorf("GetByID(a) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete absent id is not an error", func(t *testing.T) {
		s := open(t)
		if err := s.Delete(ctx, "ghost"); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
		if err := s.DeleteBatch(ctx, nil); err != nil {
			t.Errorf("DeleteBatch(nil) error = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) deck.Store {
		return NewMemoryStore()
	}, storeTraits{ownerScoped: true, counts: true})
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) deck.Store {
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}, storeTraits{ownerScoped: true, counts: true})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decks.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.Save(ctx, newDeck("d1", "alice", "", "Math")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Math" {
		t.Errorf("Title = %q, want %q", got.Title, "Math")
	}
}

func TestSQLiteStore_SaveBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if err := s.Save(ctx, newDeck("keep", "alice", "", "Keep")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A cancelled context fails the transaction part way.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.SaveBatch(cancelled, []*deck.Deck{
		newDeck("x", "alice", "", "X"),
		newDeck("y", "alice", "", "Y"),
	})
	if err == nil {
		t.Fatal("SaveBatch() with cancelled context expected error")
	}

	all, _ := s.GetAll(ctx, "alice")
	if ids := idSet(all); len(ids) != 1 || !ids["keep"] {
		t.Errorf("GetAll() ids = %v, want only keep", ids)
	}
}
