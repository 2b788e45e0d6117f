package main

import (
	"os"
	"path/filepath"
	"testing"
)

// Golden file helpers

func updateGolden(t *testing.T, path, content string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") == "" {
		return
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating testdata dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("updating golden file: %v", err)
	}
}

func compareGolden(t *testing.T, path, got string) {
	t.Helper()
	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("Golden file %s does not exist. Run with UPDATE_GOLDEN=1 to create.", path)
		return
	}
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	if string(expected) != got {
		t.Errorf("output differs from golden file %s.\nRun with UPDATE_GOLDEN=1 to update.", path)
	}
}
