package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"shieldai.dev/ragshield/internal/feeds"
	"shieldai.dev/ragshield/internal/vectorstore"
)

// Embedder turns text into a fixed-length vector. The same embedder must be
// used for indexing and for query-time retrieval.
type Embedder interface {
	GetEmbedding(text string) ([]float32, error)
}

// ErrSyncInFlight is returned when a sync run is requested while another is
// still in progress. Concurrent runs could double-upsert or interleave
// ledger writes, so they are refused rather than queued.
var ErrSyncInFlight = errors.New("sync already in progress")

// Syncer embeds not-yet-processed corpus documents and upserts them into
// the vector index, tracking completed work in the ledger. Runs are
// idempotent: an unchanged corpus with a complete ledger is a no-op.
// The engine never deletes; index entries for documents that leave the
// corpus go stale (known limitation).
type Syncer struct {
	embedder Embedder
	index    vectorstore.Store
	ledger   Ledger

	mu sync.Mutex
}

func NewSyncer(embedder Embedder, index vectorstore.Store, ledger Ledger) *Syncer {
	return &Syncer{
		embedder: embedder,
		index:    index,
		ledger:   ledger,
	}
}

// RecordID derives the index ID for a document from a hash of its content,
// so re-aggregating the corpus in a different order never re-embeds a
// document or points an old ID at new content.
func RecordID(doc feeds.Document) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(doc.PageContent)))
	return "record_" + hex.EncodeToString(sum[:8])
}

// Sync processes the corpus file and returns the number of newly indexed
// records. Documents already in the ledger and documents with empty content
// are skipped. New embeddings go to the index in one batch upsert; the
// ledger advances only after the upsert succeeds, so a failed run is safely
// retryable with no partial bookkeeping.
func (s *Syncer) Sync(ctx context.Context, corpusFile string) (int, error) {
	if !s.mu.TryLock() {
		return 0, ErrSyncInFlight
	}
	defer s.mu.Unlock()

	processed, err := s.ledger.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load ledger: %w", err)
	}

	docs, err := loadCorpus(corpusFile)
	if err != nil {
		return 0, err
	}

	var records []vectorstore.Record
	var newIDs []string
	seen := make(map[string]struct{}) // dedupe within this corpus

	for _, doc := range docs {
		text := strings.TrimSpace(doc.PageContent)
		if text == "" {
			continue
		}

		id := RecordID(doc)
		if _, ok := processed[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		embedding, err := s.embedder.GetEmbedding(doc.PageContent)
		if err != nil {
			// Abort the whole run; the ledger is untouched and the next
			// run picks these documents up again.
			return 0, fmt.Errorf("failed to embed %s: %w", id, err)
		}

		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		// Mirror the content into metadata so retrieval can recover the
		// text from metadata-only index responses.
		metadata["text"] = doc.PageContent

		records = append(records, vectorstore.Record{
			ID:       id,
			Values:   embedding,
			Metadata: metadata,
		})
		newIDs = append(newIDs, id)
	}

	if len(records) == 0 {
		log.Println("sync: no new records to process")
		return 0, nil
	}

	if err := s.index.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to upsert %d records: %w", len(records), err)
	}

	if err := s.ledger.Append(newIDs); err != nil {
		// The vectors made it into the index; upsert is idempotent by ID,
		// so the retry after a ledger failure is harmless.
		return 0, fmt.Errorf("upserted %d records but failed to update ledger: %w", len(records), err)
	}

	log.Printf("sync: indexed %d new records", len(records))
	return len(records), nil
}

func loadCorpus(path string) ([]feeds.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	var docs []feeds.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse corpus %s: %w", path, err)
	}
	return docs, nil
}
