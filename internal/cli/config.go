package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	fcerrors "github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/library"
	"github.com/matzehuels/fluidcad/pkg/server"
	"github.com/matzehuels/fluidcad/pkg/store"
)

// Environment variables that override the config file.
const (
	envStore    = "FLUIDCAD_STORE"
	envStoreDSN = "FLUIDCAD_STORE_DSN"
	envLibrary  = "FLUIDCAD_LIBRARY"
)

// Config is the on-disk CLI configuration. Every field is optional.
//
//	[store]
//	backend = "sqlite"
//	dir = "/var/lib/fluidcad"
//
//	[library]
//	file = "lab.toml"
//	set = "Lab"
//
//	[server]
//	addr = ":8080"
//	metrics = true
type Config struct {
	Store   store.Config  `toml:"store"`
	Library LibraryConfig `toml:"library"`
	Server  server.Config `toml:"server"`
}

// LibraryConfig selects an extra feature-set library.
type LibraryConfig struct {
	// File is a TOML feature set added to the catalog next to Basic.
	File string `toml:"file"`

	// Set is the default feature set for new features. Empty means Basic.
	Set string `toml:"set"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: server.Config{Addr: server.DefaultAddr},
	}
}

// LoadConfig reads the config at path, or the default location when path is
// empty. A missing default file is not an error; a missing explicit file is.
// Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, configFile)
		}
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return nil, fcerrors.Wrap(fcerrors.ErrCodeInvalidFormat, err, "config %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return nil, fcerrors.New(fcerrors.ErrCodeInvalidFormat, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envStore); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(envStoreDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(envLibrary); v != "" {
		c.Library.File = v
	}
}

// Catalog returns the Basic set plus the configured library file, if any.
func (c *Config) Catalog() (*library.Catalog, error) {
	if c.Library.File == "" {
		return library.DefaultCatalog(), nil
	}
	set, err := library.LoadFile(c.Library.File)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", c.Library.File, err)
	}
	return library.NewCatalog(library.Basic(), set)
}
