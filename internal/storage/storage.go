package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mealplan-optimizer/internal/recipe"
)

// PoolStore provides file-based storage for candidate recipe pools.
// Pools are the engine's only catalog input, so loading validates them
// before anything downstream sees them.
type PoolStore struct {
	basePath string
}

// NewPoolStore creates a PoolStore and ensures the base directory
// exists.
func NewPoolStore(basePath string) (*PoolStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &PoolStore{basePath: basePath}, nil
}

func (s *PoolStore) poolPath(name string) string {
	return filepath.Join(s.basePath, name+".json")
}

// Save stores a candidate pool under the given name.
func (s *PoolStore) Save(name string, pool []recipe.Recipe) error {
	if err := recipe.ValidatePool(pool); err != nil {
		return fmt.Errorf("refusing to save invalid pool: %w", err)
	}
	data, err := json.MarshalIndent(pool, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}
	if err := os.WriteFile(s.poolPath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write pool file: %w", err)
	}
	return nil
}

// Load retrieves and validates a named candidate pool.
func (s *PoolStore) Load(name string) ([]recipe.Recipe, error) {
	return LoadPoolFile(s.poolPath(name))
}

// List returns the names of all stored pools.
func (s *PoolStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob pool files: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return names, nil
}

// LoadPoolFile reads a candidate pool directly from a JSON file path.
func LoadPoolFile(path string) ([]recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool file: %w", err)
	}
	var pool []recipe.Recipe
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool: %w", err)
	}
	if err := recipe.ValidatePool(pool); err != nil {
		return nil, fmt.Errorf("pool file %s: %w", path, err)
	}
	return pool, nil
}
