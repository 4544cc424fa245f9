package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
)

// MemoryVault keeps snapshots in memory. For tests and dry runs.
type MemoryVault struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

var _ Vault = (*MemoryVault)(nil)

// NewMemoryVault creates an empty MemoryVault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{snapshots: make(map[string][]byte)}
}

func (v *MemoryVault) Put(_ context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshots[name] = data
	return nil
}

func (v *MemoryVault) Get(_ context.Context, name string, w io.Writer) error {
	v.mu.RLock()
	data, ok := v.snapshots[name]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrSnapshotNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (v *MemoryVault) List(context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.snapshots))
	for name := range v.snapshots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (v *MemoryVault) Delete(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.snapshots, name)
	return nil
}
