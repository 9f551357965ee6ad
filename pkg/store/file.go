package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/observability"
)

// FileStore keeps one JSON file per device for CLI usage. File names are
// hashed from the device name, so any valid name is a safe path; the name
// itself is kept inside the file.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in dir, creating the directory if
// needed. An empty dir selects DefaultDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir returns ~/.local/share/fluidcad/devices, honoring XDG_DATA_HOME.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fluidcad", "devices"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "fluidcad", "devices"), nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

// Save writes doc under name. The file is written to a temporary name and
// renamed so readers never see a partial document.
func (s *FileStore) Save(ctx context.Context, name string, doc interchange.DeviceV1) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record{Name: name, UpdatedAt: time.Now().UTC(), Document: doc}, "", "  ")
	if err != nil {
		return err
	}

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	observability.Store().OnStoreSave(ctx, BackendFile, len(data))
	return nil
}

// Load reads the document stored under name.
func (s *FileStore) Load(ctx context.Context, name string) (interchange.DeviceV1, error) {
	rec, err := s.read(s.path(name))
	if os.IsNotExist(err) {
		return interchange.DeviceV1{}, loaded(ctx, BackendFile, notFound(name))
	}
	if err != nil {
		return interchange.DeviceV1{}, err
	}
	return rec.Document, loaded(ctx, BackendFile, nil)
}

// List walks the store directory. Files that do not decode are skipped.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	out := []Entry{}
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := s.read(path)
		if err != nil {
			return nil
		}
		out = append(out, Entry{Name: rec.Name, UpdatedAt: rec.UpdatedAt})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEntries(out)
	return out, nil
}

// Delete removes the file stored under name.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return notFound(name)
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// path converts a device name to a file path. The first two hash characters
// pick a subdirectory to keep directories small.
func (s *FileStore) path(name string) string {
	sum := sha256.Sum256([]byte(name))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
