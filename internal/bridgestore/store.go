// Package bridgestore persists bridge definitions as one pretty-printed
// JSON file per bridge, so operators can inspect and hand-edit them.
package bridgestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chanbridge/internal/models"
	"chanbridge/internal/security"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("bridge directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create bridge directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the bridge record atomically: marshal to a temp file in the
// same directory, then rename over the target.
func (s *Store) Save(bridge *models.BridgeConfig) error {
	if err := security.ValidateRecordID(bridge.ID); err != nil {
		return fmt.Errorf("invalid bridge id: %w", err)
	}

	data, err := json.MarshalIndent(bridge, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bridge %s: %w", bridge.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, bridge.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write bridge %s: %w", bridge.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(bridge.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to persist bridge %s: %w", bridge.ID, err)
	}
	return nil
}

func (s *Store) Load(id string) (*models.BridgeConfig, error) {
	if err := security.ValidateRecordID(id); err != nil {
		return nil, fmt.Errorf("invalid bridge id: %w", err)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrBridgeNotFound
		}
		return nil, fmt.Errorf("failed to read bridge %s: %w", id, err)
	}

	var bridge models.BridgeConfig
	if err := json.Unmarshal(data, &bridge); err != nil {
		return nil, fmt.Errorf("failed to parse bridge %s: %w", id, err)
	}
	return &bridge, nil
}

// LoadAll reads every bridge record in the directory. A single corrupt file
// fails the load; durable state is ground truth and silently skipping a
// bridge would un-bridge live channels.
func (s *Store) LoadAll() ([]models.BridgeConfig, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bridge directory: %w", err)
	}

	var bridges []models.BridgeConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		bridge, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		bridges = append(bridges, *bridge)
	}
	return bridges, nil
}

func (s *Store) Delete(id string) error {
	if err := security.ValidateRecordID(id); err != nil {
		return fmt.Errorf("invalid bridge id: %w", err)
	}
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return models.ErrBridgeNotFound
		}
		return fmt.Errorf("failed to delete bridge %s: %w", id, err)
	}
	return nil
}
