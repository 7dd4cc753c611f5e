package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLedger_MissingFileIsEmpty(t *testing.T) {
	ledger := NewFileLedger(filepath.Join(t.TempDir(), "processed_ids.json"))

	ids, err := ledger.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileLedger_AppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_ids.json")
	ledger := NewFileLedger(path)

	require.NoError(t, ledger.Append([]string{"record_aa", "record_bb"}))
	require.NoError(t, ledger.Append([]string{"record_bb", "record_cc"}))

	ids, err := ledger.Load()
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "record_aa")
	assert.Contains(t, ids, "record_cc")
}

func TestFileLedger_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_ids.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	_, err := NewFileLedger(path).Load()
	assert.Error(t, err)
}

func TestFileLedger_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	ledger := NewFileLedger(filepath.Join(dir, "processed_ids.json"))
	require.NoError(t, ledger.Append([]string{"record_aa"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "processed_ids.json", entries[0].Name())
}
