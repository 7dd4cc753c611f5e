package ingest

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"shieldai.dev/ragshield/internal/feeds"
)

// Aggregate merges every adapter output file in dir into one corpus array
// at outFile. Files holding a single document object and files holding an
// array are flattened uniformly. Unreadable or malformed files are logged
// and skipped so one bad feed never aborts the whole run. The corpus file
// itself is excluded from the scan to avoid self-inclusion on re-runs.
func Aggregate(dir, outFile string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	outBase := filepath.Base(outFile)
	combined := []feeds.Document{}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == outBase {
			continue
		}

		path := filepath.Join(dir, name)
		docs, err := loadDocuments(path)
		if err != nil {
			log.Printf("aggregate: skipping %s: %v", name, err)
			continue
		}
		combined = append(combined, docs...)
	}

	if err := writeJSONAtomic(outFile, combined); err != nil {
		return 0, fmt.Errorf("failed to write corpus: %w", err)
	}
	return len(combined), nil
}

// loadDocuments accepts either a JSON array of documents or one document
// object, matching the two shapes adapters produce.
func loadDocuments(path string) ([]feeds.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var docs []feeds.Document
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}

	var single feeds.Document
	if err := json.Unmarshal(data, &single); err == nil {
		return []feeds.Document{single}, nil
	}

	return nil, fmt.Errorf("not a document array or object")
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
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
