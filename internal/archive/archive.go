// Package archive keeps named snapshots of a deck library outside the live
// store, optionally encrypted.
package archive

import (
	"context"
	"errors"
	"io"
)

// ErrSnapshotNotFound is returned when a named snapshot does not exist in a vault.
var ErrSnapshotNotFound = errors.New("archive: snapshot not found")

// Vault stores opaque snapshot payloads by name.
type Vault interface {
	// Put stores the bytes read from r under name, replacing any previous snapshot.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get writes the snapshot stored under name to w, or returns ErrSnapshotNotFound.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the stored snapshot names in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes a snapshot. Removing an absent snapshot is not an error.
	Delete(ctx context.Context, name string) error
}

// Encryptor seals snapshot payloads. Encryption needs only the public key;
// decryption needs the private key unlocked with a passphrase.
type Encryptor interface {
	// Setup generates a key pair, writing the private half protected by passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock returns a Decrypter for the session, or an error for a wrong passphrase.
	Unlock(passphrase string) (Decrypter, error)

	// IsConfigured reports whether keys exist.
	IsConfigured() bool
}

// Decrypter holds an unlocked private key in memory only.
type Decrypter interface {
	Decrypt(r io.Reader, w io.Writer) error
}
