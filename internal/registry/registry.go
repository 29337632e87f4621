// Package registry tracks uploaded spreadsheets for the life of the process.
// Entries are append-only: files are never updated or deleted, and the
// registry is rebuilt empty on restart. That lifecycle is intentional.
package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheetpilot/internal/core"
)

// DefaultDir is where uploads land when no directory is configured.
var DefaultDir = filepath.Join(os.TempDir(), "sheetpilot-uploads")

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,9}$`)

// Registry implements core.FileStore on the local filesystem.
type Registry struct {
	mu    sync.RWMutex
	dir   string
	files map[string]*core.StoredFile
}

// New creates a Registry rooted at dir, creating the directory if needed.
func New(dir string) (*Registry, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &Registry{
		dir:   dir,
		files: make(map[string]*core.StoredFile),
	}, nil
}

// Dir returns the upload directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Save writes the content to disk under a random name and registers it.
// The stored name is the generated ID plus a sanitized extension, so
// caller-supplied filenames can never influence the path.
func (r *Registry) Save(kind, originalName string, src io.Reader) (*core.StoredFile, error) {
	id := uuid.NewString()
	path := filepath.Join(r.dir, id+safeExt(originalName))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, src)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	stored := &core.StoredFile{
		ID:           id,
		Path:         path,
		Kind:         kind,
		OriginalName: originalName,
		Size:         size,
		UploadedAt:   time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[id] = stored

	return stored, nil
}

// Get looks up a file by ID.
func (r *Registry) Get(id string) (*core.StoredFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.files[id]
	return stored, ok
}

// List returns all registered files, newest upload first.
func (r *Registry) List() []*core.StoredFile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*core.StoredFile, 0, len(r.files))
	for _, stored := range r.files {
		list = append(list, stored)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	return list
}

// Len returns the number of registered files.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// safeExt extracts a lower-cased extension from a user-supplied filename.
// Anything that does not look like a plain extension falls back to ".xlsx".
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if !extPattern.MatchString(ext) {
		return ".xlsx"
	}
	return ext
}
