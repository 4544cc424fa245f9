package testutil

import "flashdeck/internal/archive"

// NewTestArchiver creates an Archiver over a fresh in-memory vault.
func NewTestArchiver(enc archive.Encryptor) (*archive.Archiver, *archive.MemoryVault) {
	v := archive.NewMemoryVault()
	return archive.NewArchiver(v, enc), v
}
