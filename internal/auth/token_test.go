package auth_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/testutil"
)

func newAuthority(t *testing.T, clock *testutil.StubClock) *auth.TokenAuthority {
	t.Helper()
	a, err := auth.NewTokenAuthority([]byte("test-secret"), "flashdeck", time.Hour, clock)
	if err != nil {
		t.Fatalf("NewTokenAuthority() error = %v", err)
	}
	return a
}

func TestTokenAuthority(t *testing.T) {
	t.Run("round trips the subject", func(t *testing.T) {
		a := newAuthority(t, testutil.FixedClock())
		token, err := a.Issue("alice")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		p, err := a.Verify(token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if p.UserID != "alice" {
			t.Errorf("Verify() = %q, want alice", p.UserID)
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		clock := testutil.FixedClock()
		a := newAuthority(t, clock)
		token, _ := a.Issue("alice")
		clock.Advance(2 * time.Hour)

		_, err := a.Verify(token)
		if !errors.Is(err, auth.ErrExpiredToken) {
			t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		clock := testutil.FixedClock()
		other, _ := auth.NewTokenAuthority([]byte("other-secret"), "flashdeck", time.Hour, clock)
		token, _ := other.Issue("mallory")

		_, err := newAuthority(t, clock).Verify(token)
		if !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("rejects a token from another issuer", func(t *testing.T) {
		clock := testutil.FixedClock()
		other, _ := auth.NewTokenAuthority([]byte("test-secret"), "elsewhere", time.Hour, clock)
		token, _ := other.Issue("alice")

		_, err := newAuthority(t, clock).Verify(token)
		if !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		a := newAuthority(t, testutil.FixedClock())
		for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
			if _, err := a.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", token, err)
			}
		}
	})

	t.Run("refuses an empty user id", func(t *testing.T) {
		a := newAuthority(t, testutil.FixedClock())
		if _, err := a.Issue(""); err == nil {
			t.Error("Issue(\"\") expected error")
		}
	})

	t.Run("requires a secret", func(t *testing.T) {
		_, err := auth.NewTokenAuthority(nil, "flashdeck", time.Hour, nil)
		if !errors.Is(err, auth.ErrNoSecret) {
			t.Errorf("NewTokenAuthority() error = %v, want ErrNoSecret", err)
		}
	})
}

func TestNewTokenAuthorityFromConfig(t *testing.T) {
	cfg := config.AuthConfig{Issuer: "flashdeck", Secret: "from-config", TokenTTL: "1h"}

	t.Run("override secret wins", func(t *testing.T) {
		clock := testutil.FixedClock()
		a, err := auth.NewTokenAuthorityFromConfig(cfg, "from-env", clock)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		token, _ := a.Issue("alice")

		configOnly, _ := auth.NewTokenAuthorityFromConfig(cfg, "", clock)
		if _, err := configOnly.Verify(token); err == nil {
			t.Error("token signed with override verified under config secret")
		}
	})

	t.Run("rejects bad ttl", func(t *testing.T) {
		bad := cfg
		bad.TokenTTL = "soon"
		if _, err := auth.NewTokenAuthorityFromConfig(bad, "", nil); err == nil {
			t.Error("expected error for invalid ttl")
		}
	})
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")

	got, err := auth.LoadToken(path)
	if err != nil || got != "" {
		t.Fatalf("LoadToken(missing) = %q, %v; want empty", got, err)
	}

	if err := auth.SaveToken(path, "abc.def.ghi"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token perm = %o, want 600", perm)
	}

	got, err = auth.LoadToken(path)
	if err != nil || got != "abc.def.ghi" {
		t.Errorf("LoadToken() = %q, %v; want abc.def.ghi", got, err)
	}

	if err := auth.ClearToken(path); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	if err := auth.ClearToken(path); err != nil {
		t.Errorf("ClearToken(missing) error = %v", err)
	}
}

func TestNewSecret(t *testing.T) {
	a, err := auth.NewSecret()
	if err != nil {
		t.Fatalf("NewSecret() error = %v", err)
	}
	b, _ := auth.NewSecret()
	if len(a) != 64 || a == b {
		t.Errorf("NewSecret() = %q, %q; want distinct 64-char secrets", a, b)
	}
}
