package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Ledger is the durable record of which document IDs have already been
// embedded and upserted. Load returns the full set; Append commits newly
// processed IDs. The sync engine only appends after a confirmed upsert, so
// a ledger entry always corresponds to a record in the index.
type Ledger interface {
	Load() (map[string]struct{}, error)
	Append(ids []string) error
}

// FileLedger stores the ledger as one JSON array of ID strings. Writes go
// through a temp file and rename so a crash mid-write never truncates the
// ledger. A missing file is an empty ledger.
type FileLedger struct {
	path string
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

func (l *FileLedger) Load() (map[string]struct{}, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger %s: %w", l.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", l.path, err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (l *FileLedger) Append(ids []string) error {
	existing, err := l.Load()
	if err != nil {
		return err
	}
	for _, id := range ids {
		existing[id] = struct{}{}
	}

	all := make([]string, 0, len(existing))
	for id := range existing {
		all = append(all, id)
	}
	sort.Strings(all) // stable on-disk order

	return writeJSONAtomic(l.path, all)
}
