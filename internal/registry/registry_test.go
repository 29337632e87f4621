package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return reg
}

func TestNew_CreatesUploadDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	if _, err := New(dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("upload directory was not created: %v", err)
	}
}

func TestSave_RegistersFile(t *testing.T) {
	reg := newTestRegistry(t)

	stored, err := reg.Save("fb", "report.xlsx", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if stored.ID == "" {
		t.Error("Save() returned empty ID")
	}
	if stored.Kind != "fb" {
		t.Errorf("Kind = %q, want %q", stored.Kind, "fb")
	}
	if stored.OriginalName != "report.xlsx" {
		t.Errorf("OriginalName = %q, want %q", stored.OriginalName, "report.xlsx")
	}
	if stored.Size != int64(len("content")) {
		t.Errorf("Size = %d, want %d", stored.Size, len("content"))
	}

	data, err := os.ReadFile(stored.Path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("stored content = %q, want %q", data, "content")
	}

	got, ok := reg.Get(stored.ID)
	if !ok {
		t.Fatal("Get() did not find the saved file")
	}
	if got.Path != stored.Path {
		t.Errorf("Get() path = %q, want %q", got.Path, stored.Path)
	}
}

func TestSave_SameFileTwiceGetsDistinctIdentities(t *testing.T) {
	reg := newTestRegistry(t)

	first, err := reg.Save("fb", "report.xlsx", strings.NewReader("same"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := reg.Save("fb", "report.xlsx", strings.NewReader("same"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("duplicate upload reused ID %q", first.ID)
	}
	if first.Path == second.Path {
		t.Errorf("duplicate upload reused path %q", first.Path)
	}
}

func TestGet_UnknownID(t *testing.T) {
	reg := newTestRegistry(t)

	if _, ok := reg.Get("nope"); ok {
		t.Error("Get() found a file that was never saved")
	}
}

func TestList_NewestFirst(t *testing.T) {
	reg := newTestRegistry(t)

	first, _ := reg.Save("fb", "a.xlsx", strings.NewReader("a"))
	second, _ := reg.Save("ga", "b.xlsx", strings.NewReader("b"))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(list))
	}

	// Saves happen sequentially, so the second upload sorts first.
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("List() order = [%s %s], want [%s %s]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{"xlsx kept", "report.xlsx", ".xlsx"},
		{"upper-cased xlsx normalized", "REPORT.XLSX", ".xlsx"},
		{"csv kept", "data.csv", ".csv"},
		{"no extension defaults", "report", ".xlsx"},
		{"bare dot defaults", "report.", ".xlsx"},
		{"traversal attempt defaults", "../../etc/passwd", ".xlsx"},
		{"last extension wins", "archive.tar.gz", ".gz"},
		{"overlong extension defaults", "f.verylongextension", ".xlsx"},
		{"hostile characters default", "f.x!sx", ".xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeExt(tt.filename); got != tt.expected {
				t.Errorf("safeExt(%q) = %q, want %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestSave_StoredNameNeverUsesOriginalName(t *testing.T) {
	reg := newTestRegistry(t)

	stored, err := reg.Save("plan", "../evil.xlsx", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if filepath.Dir(stored.Path) != reg.Dir() {
		t.Errorf("stored outside upload dir: %q", stored.Path)
	}
	if strings.Contains(filepath.Base(stored.Path), "evil") {
		t.Errorf("stored name leaked original name: %q", stored.Path)
	}
}
