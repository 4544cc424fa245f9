package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

const (
	plainExt  = ".json"
	sealedExt = ".json.age"
)

// Archiver saves and loads snapshots by logical name. Plain snapshots are
// stored as <name>.json and encrypted ones as <name>.json.age.
type Archiver struct {
	vault     Vault
	encryptor Encryptor
}

// NewArchiver creates an Archiver. encryptor may be nil when encryption is not configured.
func NewArchiver(vault Vault, encryptor Encryptor) *Archiver {
	return &Archiver{vault: vault, encryptor: encryptor}
}

// Save writes snap under name, sealed when encrypt is true. It returns the
// object name that was written.
func (a *Archiver) Save(ctx context.Context, name string, snap *Snapshot, encrypt bool) (string, error) {
	var plain bytes.Buffer
	if err := Encode(&plain, snap); err != nil {
		return "", err
	}

	if !encrypt {
		object := name + plainExt
		if err := a.vault.Put(ctx, object, &plain); err != nil {
			return "", err
		}
		return object, nil
	}

	if a.encryptor == nil || !a.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys are not set up")
	}
	var sealed bytes.Buffer
	if err := a.encryptor.Encrypt(&plain, &sealed); err != nil {
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}
	object := name + sealedExt
	if err := a.vault.Put(ctx, object, &sealed); err != nil {
		return "", err
	}
	return object, nil
}

// Load reads the snapshot saved under name. If only a sealed copy exists,
// passphrase is called to unlock it.
func (a *Archiver) Load(ctx context.Context, name string, passphrase func() (string, error)) (*Snapshot, error) {
	var buf bytes.Buffer
	err := a.vault.Get(ctx, name+plainExt, &buf)
	if err == nil {
		return Decode(&buf)
	}
	if !errors.Is(err, ErrSnapshotNotFound) {
		return nil, err
	}

	buf.Reset()
	if err := a.vault.Get(ctx, name+sealedExt, &buf); err != nil {
		return nil, err
	}
	if a.encryptor == nil {
		return nil, fmt.Errorf("snapshot %s is encrypted but no encryptor is configured", name)
	}

	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := a.encryptor.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking keys: %w", err)
	}
	var plain bytes.Buffer
	if err := dec.Decrypt(&buf, &plain); err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}
	return Decode(&plain)
}

// List returns the snapshot object names held by the vault.
func (a *Archiver) List(ctx context.Context) ([]string, error) {
	return a.vault.List(ctx)
}
