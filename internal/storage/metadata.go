// Package storage persists user metadata across restarts as a JSON
// document in the data directory.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const metadataFile = "metadata.json"

// LoadMetadata reads the persisted metadata, keyed by nick. A missing
// file is an empty store, not an error.
func LoadMetadata(dataDir string) (map[string]map[string]any, error) {
	path := filepath.Join(dataDir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string]any{}, nil
		}
		return nil, err
	}

	meta := make(map[string]map[string]any)
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveMetadata writes the metadata store. Nicks with no remaining
// keys are dropped rather than written as empty objects.
func SaveMetadata(dataDir string, meta map[string]map[string]any) error {
	trimmed := make(map[string]map[string]any, len(meta))
	for nick, data := range meta {
		if len(data) > 0 {
			trimmed[nick] = data
		}
	}

	out, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	path := filepath.Join(dataDir, metadataFile)
	return os.WriteFile(path, out, 0644)
}
