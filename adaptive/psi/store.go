package psi

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Store persists posterior snapshots keyed by condition label.
type Store interface {
	// Save stores s under s.Label, replacing any previous snapshot.
	Save(s Snapshot) error
	// Load returns the snapshot stored under label or an error wrapping
	// ErrNoSnapshot.
	Load(label string) (Snapshot, error)
}

func checkLabel(label string) error {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	return nil
}

// MemoryStore keeps snapshots in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

func (m *MemoryStore) Save(s Snapshot) error {
	if err := checkLabel(s.Label); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[s.Label] = cloneSnapshot(s)

	return nil
}

func (m *MemoryStore) Load(label string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[label]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNoSnapshot, label)
	}

	return cloneSnapshot(s), nil
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Posterior = slices.Clone(s.Posterior)

	for k := range s.Axes {
		out.Axes[k] = slices.Clone(s.Axes[k])
	}

	return out
}

// snapshotExt is the file extension used by DirStore.
const snapshotExt = ".psi"

// DirStore keeps one snapshot file per label in a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed and returns a store rooted there.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("psi: create snapshot directory: %w", err)
	}

	return &DirStore{dir: dir}, nil
}

// Path returns the file a label is stored in.
func (d *DirStore) Path(label string) string {
	return filepath.Join(d.dir, label+snapshotExt)
}

// Save writes the snapshot atomically through a temporary file.
func (d *DirStore) Save(s Snapshot) (err error) {
	if err := checkLabel(s.Label); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".tmp-*"+snapshotExt)
	if err != nil {
		return fmt.Errorf("psi: save %q: %w", s.Label, err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := EncodeSnapshot(w, s); err != nil {
		return fmt.Errorf("psi: save %q: %w", s.Label, err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("psi: save %q: %w", s.Label, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("psi: save %q: %w", s.Label, err)
	}

	if err := os.Rename(tmp.Name(), d.Path(s.Label)); err != nil {
		return fmt.Errorf("psi: save %q: %w", s.Label, err)
	}

	return nil
}

func (d *DirStore) Load(label string) (Snapshot, error) {
	if err := checkLabel(label); err != nil {
		return Snapshot{}, err
	}

	f, err := os.Open(d.Path(label))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNoSnapshot, label)
	}

	if err != nil {
		return Snapshot{}, fmt.Errorf("psi: load %q: %w", label, err)
	}
	defer f.Close()

	s, err := DecodeSnapshot(bufio.NewReader(f))
	if err != nil {
		return Snapshot{}, fmt.Errorf("psi: load %q: %w", label, err)
	}

	return s, nil
}
