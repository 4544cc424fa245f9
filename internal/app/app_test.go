package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/deck"
	"flashdeck/internal/store"
	"flashdeck/internal/testutil"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	t.Setenv(EnvToken, "")
	t.Setenv(EnvAuthSecret, "")

	base := t.TempDir()
	cfg := config.NewConfig(base)
	cfg.Store = config.StoreConfig{Type: "memory", Mode: mode}
	cfg.Archive = config.ArchiveConfig{Type: "memory"}
	cfg.Encryption = config.EncryptionConfig{Type: "test"}
	cfg.Auth.Secret = "test-secret"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *FlashdeckApp {
	t.Helper()
	a, err := NewFlashdeckApp(context.Background(), cfg, "test", Options{
		Stderr: &bytes.Buffer{},
		Clock:  testutil.FixedClock(),
		IDGen:  testutil.NewStubIDGenerator(),
	})
	if err != nil {
		t.Fatalf("NewFlashdeckApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestFlashdeckApp_LocalDecks(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, testConfig(t, ""))

	if a.Service().Mode() != deck.ModeLocal {
		t.Fatalf("Mode() = %v, want local", a.Service().Mode())
	}

	parent, err := a.CreateDeck(ctx, DeckForm{Title: "  Languages  ", Color: "teal"}, "")
	if err != nil {
		t.Fatalf("CreateDeck() error = %v", err)
	}
	if parent.Title != "Languages" || parent.Color != "#006d77" {
		t.Errorf("deck = %q %q, want trimmed title and resolved colour", parent.Title, parent.Color)
	}
	child, err := a.CreateDeck(ctx, DeckForm{Title: "Spanish"}, parent.ID)
	if err != nil {
		t.Fatalf("CreateDeck() error = %v", err)
	}

	if _, err := a.AddCard(ctx, child.ID, CardForm{Question: "hola", Answer: "hello"}); err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}

	d, path, err := a.ShowDeck(ctx, child.ID)
	if err != nil {
		t.Fatalf("ShowDeck() error = %v", err)
	}
	if len(d.Cards) != 1 || len(path) != 2 {
		t.Errorf("ShowDeck() = %d cards, %d crumbs; want 1, 2", len(d.Cards), len(path))
	}

	n, err := a.CountChildren(ctx, parent.ID)
	if err != nil || n != 1 {
		t.Errorf("CountChildren() = %d, %v; want 1", n, err)
	}

	moved, err := a.UpdateDeck(ctx, child.ID, DeckUpdateForm{Root: true})
	if err != nil {
		t.Fatalf("UpdateDeck() error = %v", err)
	}
	if !moved.IsRoot() {
		t.Error("UpdateDeck(Root) did not move the deck to the root")
	}

	if err := a.DeleteDeck(ctx, parent.ID); err != nil {
		t.Fatalf("DeleteDeck() error = %v", err)
	}
	roots, _ := a.ListDecks(ctx, "")
	if len(roots) != 1 || roots[0].ID != child.ID {
		t.Errorf("ListDecks() = %v, want only the moved deck", roots)
	}

	if _, _, err := a.ShowDeck(ctx, "missing"); !errors.Is(err, deck.ErrNotFound) {
		t.Errorf("ShowDeck(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFlashdeckApp_RejectsInvalidForms(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, testConfig(t, ""))

	_, err := a.CreateDeck(ctx, DeckForm{Title: " ", Color: "chartreuse"}, "")
	var fe *FormError
	if !errors.As(err, &fe) {
		t.Fatalf("CreateDeck() error = %v, want FormError", err)
	}
	if len(fe.Fields) != 2 {
		t.Errorf("FormError fields = %v, want title and color", fe.Fields)
	}

	_, err = a.AddCard(ctx, "any", CardForm{Question: "q"})
	if !errors.As(err, &fe) {
		t.Errorf("AddCard() error = %v, want FormError", err)
	}
}

func TestFlashdeckApp_Principal(t *testing.T) {
	ctx := context.Background()

	t.Run("remote mode requires login", func(t *testing.T) {
		a := newTestApp(t, testConfig(t, "remote"))
		_, err := a.CreateDeck(ctx, DeckForm{Title: "Math"}, "")
		if !errors.Is(err, deck.ErrUnauthenticated) {
			t.Fatalf("CreateDeck() error = %v, want ErrUnauthenticated", err)
		}

		if _, err := a.Login("alice"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		d, err := a.CreateDeck(ctx, DeckForm{Title: "Math"}, "")
		if err != nil {
			t.Fatalf("CreateDeck() error = %v", err)
		}
		if d.OwnerID != "alice" {
			t.Errorf("OwnerID = %q, want alice", d.OwnerID)
		}
	})

	t.Run("saved token is picked up by the next run", func(t *testing.T) {
		cfg := testConfig(t, "remote")
		first := newTestApp(t, cfg)
		if _, err := first.Login("alice"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		second := newTestApp(t, cfg)
		if second.Principal().UserID != "alice" {
			t.Errorf("Principal() = %v, want alice", second.Principal())
		}

		if err := second.Logout(); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		third := newTestApp(t, cfg)
		if third.Principal().Authenticated() {
			t.Errorf("Principal() = %v after logout, want anonymous", third.Principal())
		}
	})

	t.Run("environment token wins", func(t *testing.T) {
		cfg := testConfig(t, "remote")
		authority, err := auth.NewTokenAuthorityFromConfig(cfg.Auth, "", testutil.FixedClock())
		if err != nil {
			t.Fatalf("NewTokenAuthorityFromConfig() error = %v", err)
		}
		token, _ := authority.Issue("bob")
		t.Setenv(EnvToken, token)

		a := newTestApp(t, cfg)
		if a.Principal().UserID != "bob" {
			t.Errorf("Principal() = %v, want bob", a.Principal())
		}
	})

	t.Run("rejected token leaves caller anonymous", func(t *testing.T) {
		cfg := testConfig(t, "remote")
		t.Setenv(EnvToken, "not-a-token")
		a := newTestApp(t, cfg)
		if a.Principal().Authenticated() {
			t.Errorf("Principal() = %v, want anonymous", a.Principal())
		}
	})

	t.Run("login needs a secret", func(t *testing.T) {
		cfg := testConfig(t, "remote")
		cfg.Auth.Secret = ""
		a := newTestApp(t, cfg)
		if _, err := a.Login("alice"); !errors.Is(err, auth.ErrNoSecret) {
			t.Errorf("Login() error = %v, want ErrNoSecret", err)
		}
	})
}

func TestFlashdeckApp_ExportRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("plain snapshot", func(t *testing.T) {
		a := newTestApp(t, testConfig(t, ""))
		parent, _ := a.CreateDeck(ctx, DeckForm{Title: "Math"}, "")
		_, _ = a.CreateDeck(ctx, DeckForm{Title: "Algebra"}, parent.ID)

		object, snap, err := a.Export(ctx, "weekly", false)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if object != "weekly.json" || len(snap.Decks) != 2 {
			t.Errorf("Export() = %q with %d decks", object, len(snap.Decks))
		}

		if err := a.DeleteDeck(ctx, parent.ID); err != nil {
			t.Fatalf("DeleteDeck() error = %v", err)
		}
		n, err := a.Restore(ctx, "weekly", func() (string, error) { return "", errors.New("not encrypted") })
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if n != 2 {
			t.Errorf("Restore() = %d, want 2", n)
		}
		children, _ := a.ListDecks(ctx, parent.ID)
		if len(children) != 1 {
			t.Errorf("restored children = %d, want 1", len(children))
		}
	})

	t.Run("encrypted snapshot", func(t *testing.T) {
		a := newTestApp(t, testConfig(t, ""))
		_, _ = a.CreateDeck(ctx, DeckForm{Title: "Math"}, "")
		if err := a.InitKeys("hunter2"); err != nil {
			t.Fatalf("InitKeys() error = %v", err)
		}

		object, _, err := a.Export(ctx, "secret", true)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if object != "secret.json.age" {
			t.Errorf("object = %q, want secret.json.age", object)
		}

		if _, err := a.Restore(ctx, "secret", func() (string, error) { return "wrong", nil }); err == nil {
			t.Error("Restore() with wrong passphrase expected error")
		}
		n, err := a.Restore(ctx, "secret", func() (string, error) { return "hunter2", nil })
		if err != nil || n != 1 {
			t.Errorf("Restore() = %d, %v; want 1", n, err)
		}

		names, err := a.ListSnapshots(ctx)
		if err != nil || len(names) != 1 {
			t.Errorf("ListSnapshots() = %v, %v", names, err)
		}
	})
}

func TestFlashdeckApp_MigrateFrom(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decks.json")
	if _, err := store.NewBlobStore(path, true, testutil.FixedClock().Now()); err != nil {
		t.Fatalf("NewBlobStore() error = %v", err)
	}

	a := newTestApp(t, testConfig(t, "remote"))
	if _, err := a.MigrateFrom(ctx, path); !errors.Is(err, deck.ErrUnauthenticated) {
		t.Fatalf("MigrateFrom() anonymous error = %v, want ErrUnauthenticated", err)
	}
	if _, err := a.Login("alice"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	n, err := a.MigrateFrom(ctx, path)
	if err != nil {
		t.Fatalf("MigrateFrom() error = %v", err)
	}
	if n != 2 {
		t.Errorf("MigrateFrom() = %d, want 2", n)
	}

	if _, err := a.MigrateFrom(ctx, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("MigrateFrom(missing) expected error")
	}
}

func TestNewFlashdeckApp_BadConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Store.Mode = "shared"
	if _, err := NewFlashdeckApp(context.Background(), cfg, "test", Options{Stderr: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for unknown mode")
	}

	cfg = testConfig(t, "")
	cfg.Archive.Type = "tape"
	if _, err := NewFlashdeckApp(context.Background(), cfg, "test", Options{Stderr: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for unknown archive")
	}
}
