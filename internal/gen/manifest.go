package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultManifestName is the manifest file written next to go.mod.
const DefaultManifestName = ".automap.manifest"

// manifestVersion changes whenever the manifest layout does.
const manifestVersion = 1

// Manifest records the artifacts written by the previous run, so artifacts
// of mappings that no longer exist can be removed.
type Manifest struct {
	Version int             `msgpack:"version"`
	Entries []ManifestEntry `msgpack:"entries"`
}

// ManifestEntry describes one written artifact.
type ManifestEntry struct {
	Path     string `msgpack:"path"`
	TypePair string `msgpack:"type_pair"`
	Hash     string `msgpack:"hash"`
}

// NewManifest builds a manifest for a set of generated files.
func NewManifest(files []GeneratedFile) *Manifest {
	m := &Manifest{Version: manifestVersion}

	for _, f := range files {
		m.Entries = append(m.Entries, ManifestEntry{
			Path:     f.Path(),
			TypePair: f.TypePair,
			Hash:     contentHash(f.Content),
		})
	}

	m.sortEntries()

	return m
}

// add records an entry carried over from a previous manifest.
func (m *Manifest) add(e ManifestEntry) {
	m.Entries = append(m.Entries, e)
	m.sortEntries()
}

func (m *Manifest) sortEntries() {
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
}

// LoadManifest reads a manifest. A missing file or an outdated layout
// yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Manifest{Version: manifestVersion}, nil
		}

		return nil, err
	}
	defer f.Close()

	var m Manifest
	if err := msgpack.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}

	if m.Version != manifestVersion {
		return &Manifest{Version: manifestVersion}, nil
	}

	return &m, nil
}

// Save writes the manifest through a temporary file and a rename.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".automap-*")
	if err != nil {
		return err
	}

	tmp := f.Name()

	if err := msgpack.NewEncoder(f).Encode(m); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)

		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

// Paths returns the recorded artifact paths.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		paths = append(paths, e.Path)
	}

	return paths
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
