package testutil

import (
	"testing"

	"flashdeck/internal/archive"
	"flashdeck/internal/encryption"
)

// NewTestEncryptor creates a TestEncryptor that only unlocks with passphrase.
func NewTestEncryptor(t *testing.T, passphrase string) archive.Encryptor {
	t.Helper()
	enc := encryption.NewTestEncryptor()
	if err := enc.Setup(passphrase); err != nil {
		t.Fatalf("failed to set up test encryptor: %v", err)
	}
	return enc
}
