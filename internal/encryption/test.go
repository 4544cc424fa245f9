package encryption

import (
	"bytes"
	"fmt"
	"io"

	"flashdeck/internal/archive"
)

// testHeader marks payloads sealed by TestEncryptor.
var testHeader = []byte("FDENC\x00\x00\x01")

// TestEncryptor is a deterministic stand-in for tests. It prepends a fixed
// header on Encrypt and strips it on Decrypt. The passphrase given to Setup
// is the only one Unlock accepts.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ archive.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates an already configured TestEncryptor that accepts any passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (archive.Decrypter, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecrypter{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecrypter strips the header added by TestEncryptor.
type TestDecrypter struct{}

var _ archive.Decrypter = (*TestDecrypter)(nil)

func (d *TestDecrypter) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
