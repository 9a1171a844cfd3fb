package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMetadataRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ircstate-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	meta := map[string]map[string]any{
		"alice": {"score": float64(10), "note": "hello"},
		"bob":   {"seen": "2026-08-30"},
	}

	if err := SaveMetadata(tmpDir, meta); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	loaded, err := LoadMetadata(tmpDir)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Errorf("Expected 2 users, got %d", len(loaded))
	}
	if loaded["alice"]["note"] != "hello" {
		t.Errorf("alice note mismatch: got %v", loaded["alice"]["note"])
	}
	if loaded["alice"]["score"] != float64(10) {
		t.Errorf("alice score mismatch: got %v", loaded["alice"]["score"])
	}
	if loaded["bob"]["seen"] != "2026-08-30" {
		t.Errorf("bob seen mismatch: got %v", loaded["bob"]["seen"])
	}
}

func TestSaveMetadataDropsEmptyUsers(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ircstate-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	meta := map[string]map[string]any{
		"alice": {"score": float64(1)},
		"ghost": {},
	}

	if err := SaveMetadata(tmpDir, meta); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	loaded, err := LoadMetadata(tmpDir)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}

	if _, ok := loaded["ghost"]; ok {
		t.Error("empty user should not be persisted")
	}
	if len(loaded) != 1 {
		t.Errorf("Expected 1 user, got %d", len(loaded))
	}
}

func TestLoadMetadataMissing(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ircstate-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	loaded, err := LoadMetadata(tmpDir)
	if err != nil {
		t.Fatalf("LoadMetadata should not fail for a missing file: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty store, got %d users", len(loaded))
	}
}

func TestLoadMetadataCorrupt(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ircstate-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "metadata.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadMetadata(tmpDir); err == nil {
		t.Error("corrupt file should fail to load")
	}
}
