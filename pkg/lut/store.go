package lut

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
)

// Kind identifies one of the three table types.
type Kind int

// Table kinds in bake order.
const (
	Transmittance Kind = iota
	Irradiance
	Inscattering
)

// Kinds lists every table kind in bake order.
var Kinds = []Kind{Transmittance, Irradiance, Inscattering}

// String returns the file name prefix of the kind.
func (k Kind) String() string {
	switch k {
	case Transmittance:
		return "Transmittance"
	case Irradiance:
		return "Irradiance"
	case Inscattering:
		return "Inscattering"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a kind name, case-sensitive as written in file names.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Ext is the table file extension.
const Ext = ".lut"

// FileName returns "<Kind>_<thicknessKm>_<radiusKm>.lut".
func FileName(k Kind, c atmos.Class) string {
	return fmt.Sprintf("%s_%s%s", k, c, Ext)
}

// Store loads and saves baked tables by kind and class.
type Store interface {
	// Load returns ErrMissingTable when the table was never saved and
	// ErrMalformedTable when it cannot be decoded.
	Load(k Kind, c atmos.Class) (*Buffer, error)
	Save(k Kind, c atmos.Class, b *Buffer) error
}

// DirStore keeps tables as files under a resource root.
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// Root returns the resource root.
func (s *DirStore) Root() string {
	return s.root
}

// Path returns the file path of a table.
func (s *DirStore) Path(k Kind, c atmos.Class) string {
	return filepath.Join(s.root, FileName(k, c))
}

// Load reads and decodes a table file.
func (s *DirStore) Load(k Kind, c atmos.Class) (*Buffer, error) {
	path := s.Path(k, c)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingTable, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	b, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return b, nil
}

// Save encodes b and writes it atomically through a temporary file.
func (s *DirStore) Save(k Kind, c atmos.Class, b *Buffer) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("creating resource root: %w", err)
	}

	data, err := Marshal(b)
	if err != nil {
		return err
	}

	path := s.Path(k, c)
	tmp, err := os.CreateTemp(s.root, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}

type memKey struct {
	kind  Kind
	class atmos.Class
}

// MemStore keeps encoded tables in memory. It round-trips through the file
// encoding so that tests exercise the same codec as DirStore.
type MemStore struct {
	mu     sync.RWMutex
	tables map[memKey][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[memKey][]byte)}
}

// Load decodes a stored table.
func (s *MemStore) Load(k Kind, c atmos.Class) (*Buffer, error) {
	s.mu.RLock()
	data, ok := s.tables[memKey{k, c}]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, FileName(k, c))
	}
	return Decode(data)
}

// Save encodes and stores a table.
func (s *MemStore) Save(k Kind, c atmos.Class, b *Buffer) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tables[memKey{k, c}] = data
	s.mu.Unlock()
	return nil
}

// Raw returns the encoded bytes of a stored table.
func (s *MemStore) Raw(k Kind, c atmos.Class) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tables[memKey{k, c}]
	return data, ok
}

// Put stores raw bytes without validation.
func (s *MemStore) Put(k Kind, c atmos.Class, data []byte) {
	s.mu.Lock()
	s.tables[memKey{k, c}] = data
	s.mu.Unlock()
}

// Len returns the number of stored tables.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}
