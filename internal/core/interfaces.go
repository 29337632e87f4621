package core

import (
	"context"
	"io"
)

// FileStore is the registry of uploaded spreadsheets. Entries live for the
// life of the process; there is no deletion and no eviction.
type FileStore interface {
	// Save writes the uploaded content to disk and registers it under a
	// freshly generated ID.
	Save(kind, originalName string, r io.Reader) (*StoredFile, error)

	// Get looks up a file by ID.
	Get(id string) (*StoredFile, bool)

	// List returns all registered files, newest first.
	List() []*StoredFile
}

// Generator produces an answer from a composed prompt.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}
