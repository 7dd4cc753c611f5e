package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteMode controls what a collection cycle does to the adapter's output
// file. Snapshot-style feeds (blocklists) replace the previous contents;
// event-style feeds (pulses) keep history and append.
type WriteMode int

const (
	ModeReplace WriteMode = iota
	ModeAppend
)

func (m WriteMode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// Adapter is one external threat-intelligence source. Each adapter owns its
// polling cycle and its own output file; adapters never share state.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]Document, error)
	Mode() WriteMode
	OutputFile() string
}

// ErrSourceUnavailable marks fetch failures that should be logged and
// retried on the next cycle rather than crashing the scheduler.
var ErrSourceUnavailable = errors.New("feed source unavailable")

// WriteDocuments persists one adapter cycle's output. In append mode the
// existing file is loaded first and new records are added to it; a missing
// or unreadable existing file starts a fresh history. The write itself goes
// through a temp file and rename so a crash never leaves a truncated file.
func WriteDocuments(path string, docs []Document, mode WriteMode) error {
	valid := make([]Document, 0, len(docs))
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			continue
		}
		valid = append(valid, d)
	}

	if mode == ModeAppend {
		existing, err := readDocumentsFile(path)
		if err == nil {
			valid = append(existing, valid...)
		}
	}

	return writeJSONAtomic(path, valid)
}

func readDocumentsFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return docs, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output for %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
