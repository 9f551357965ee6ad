// Package store persists interchange documents.
//
// A [Store] maps a device name to a version 1 document. Backends differ
// only in where the bytes live:
//   - memory: in-process map, for tests and the server's scratch mode
//   - file: one JSON file per device under a directory, for CLI usage
//   - sqlite: a single database file, JSON documents in a text column
//   - redis: msgpack values plus a sorted-set index, for shared deployments
//   - mongo: one BSON document per device
//
// Every backend returns [ErrNotFound] for a missing device on Load and
// Delete, and reports hits, misses and writes to [observability.Store].
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Backend: "sqlite", Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := store.SaveDevice(ctx, s, d); err != nil {
//	    return err
//	}
//	d, err = store.LoadDevice(ctx, s, "mixer")
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/fluidcad/pkg/device"
	fcerrors "github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/observability"
)

// ErrNotFound is returned when a device does not exist in the store.
var ErrNotFound = errors.New("not found")

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Entry describes a stored device without its document.
type Entry struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the interface for document storage backends.
type Store interface {
	// Save creates or replaces the document stored under name.
	Save(ctx context.Context, name string, doc interchange.DeviceV1) error

	// Load returns the document stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) (interchange.DeviceV1, error)

	// List returns every stored device ordered by name.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes the document stored under name, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend. Fields a backend does not use
// are ignored.
type Config struct {
	// Backend is one of memory, file, sqlite, redis or mongo. Empty means file.
	Backend string `toml:"backend"`

	// Dir is the data directory for the file and sqlite backends.
	Dir string `toml:"dir"`

	// DSN is the sqlite path, a redis:// URL or a mongodb:// URI.
	DSN string `toml:"dsn"`

	// Database is the MongoDB database name.
	Database string `toml:"database"`
}

// SQLitePath returns DSN, or devices.db inside Dir. An empty Dir selects
// DefaultDir.
func (c Config) SQLitePath() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	dir := c.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "devices.db"), nil
}

// DefaultDatabase is the MongoDB database used when Config.Database is empty.
const DefaultDatabase = "fluidcad"

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path)
	case BackendRedis:
		return OpenRedis(ctx, cfg.DSN)
	case BackendMongo:
		db := cfg.Database
		if db == "" {
			db = DefaultDatabase
		}
		return OpenMongo(ctx, cfg.DSN, db)
	}
	return nil, fcerrors.New(fcerrors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
}

// SaveDevice stores d under its name.
func SaveDevice(ctx context.Context, s Store, d *device.Device) error {
	return s.Save(ctx, d.Name(), interchange.DeviceToV1(d))
}

// LoadDevice loads and rebuilds the device stored under name.
func LoadDevice(ctx context.Context, s Store, name string, opts ...device.Option) (*device.Device, error) {
	doc, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	d, err := interchange.DeviceFromV1(doc, opts...)
	if err != nil {
		return nil, fmt.Errorf("stored device %s: %w", name, err)
	}
	return d, nil
}

// record is the stored form shared by the file, redis and mongo backends.
type record struct {
	Name      string               `json:"name" msgpack:"name" bson:"_id"`
	UpdatedAt time.Time            `json:"updated_at" msgpack:"updated_at" bson:"updated_at"`
	Document  interchange.DeviceV1 `json:"document" msgpack:"document" bson:"document"`
}

func validName(name string) error {
	return fcerrors.ValidateReference("device", name)
}

// loaded reports a Load outcome to the store hooks and passes err through.
func loaded(ctx context.Context, backend string, err error) error {
	switch {
	case err == nil:
		observability.Store().OnStoreHit(ctx, backend)
	case errors.Is(err, ErrNotFound):
		observability.Store().OnStoreMiss(ctx, backend)
	}
	return err
}

func sortEntries(es []Entry) {
	slices.SortFunc(es, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
}

func notFound(name string) error {
	return fmt.Errorf("device %s: %w", name, ErrNotFound)
}
