package config

import (
	"errors"
	"sync"

	"github.com/slighter12/sanshu-mcp-go/logger"
)

// Store gives read access to the persisted configuration. Every Load reads
// the file again so edits made by other processes take effect on the next
// call without a restart.
type Store struct {
	path string

	mu       sync.RWMutex
	snapshot *Config
}

// NewStore creates a store for path. It never fails: when the file cannot
// be read the boot snapshot falls back to defaults and a warning is logged.
func NewStore(path string) *Store {
	s := &Store{path: path}
	cfg, err := LoadConfig(path)
	if err != nil {
		logger.Warn("Config unavailable at startup, using defaults", "path", path, "error", err)
		cfg = NewConfig()
		applyEnvOverrides(cfg)
		cfg.Normalize()
	}
	s.snapshot = cfg
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration file fresh. A successful read also refreshes
// the snapshot.
func (s *Store) Load() (*Config, error) {
	if s.path == "" {
		return nil, errors.New("config path is empty")
	}
	cfg, err := LoadConfig(s.path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snapshot = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Snapshot returns the most recent successfully loaded configuration.
func (s *Store) Snapshot() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
