package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	day := time.Date(2025, 4, 15, 9, 30, 0, 0, time.UTC)

	path, err := Create(dir, day)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Base(path) != "2025-04-15.md" {
		t.Errorf("unexpected file name %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read journal: %v", err)
	}
	for _, want := range []string{"# Tuesday, April 15, 2025", "## Plan", "## Log", "- 09:30 -", "## Notes"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("journal missing %q:\n%s", want, content)
		}
	}
}

func TestCreateNeverClobbers(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	path, err := Create(dir, day)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("precious notes"), 0644); err != nil {
		t.Fatal(err)
	}

	again, err := Create(dir, day)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if again != path {
		t.Errorf("expected existing path back, got %s", again)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "precious notes" {
		t.Error("existing journal was clobbered")
	}
}
