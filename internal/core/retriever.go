package core

import (
	"context"
	"fmt"
	"log"

	"shieldai.dev/ragshield/internal/ingest"
	"shieldai.dev/ragshield/internal/vectorstore"
)

const DefaultTopK = 5

// ScoredDocument is one retrieval hit: recovered text, its stored metadata
// and the similarity score reported by the index.
type ScoredDocument struct {
	Text     string
	Metadata map[string]any
	Score    float64
}

// Retriever embeds a query with the same model the sync engine uses and
// returns the k nearest indexed documents, best match first. It has no side
// effects.
type Retriever struct {
	embedder ingest.Embedder
	index    vectorstore.Store
	topK     int
}

func NewRetriever(embedder ingest.Embedder, index vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]ScoredDocument, error) {
	queryEmbedding, err := r.embedder.GetEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.index.Query(ctx, queryEmbedding, r.topK)
	if err != nil {
		// An index outage degrades retrieval to an empty context rather
		// than failing the request path.
		log.Printf("retriever: index query failed, returning no context: %v", err)
		return nil, nil
	}

	docs := make([]ScoredDocument, 0, len(matches))
	for _, m := range matches {
		text := displayText(m.Metadata)
		if text == "" {
			log.Printf("retriever: match %s has no recoverable text, skipping", m.ID)
			continue
		}
		docs = append(docs, ScoredDocument{
			Text:     text,
			Metadata: m.Metadata,
			Score:    m.Score,
		})
	}
	return docs, nil
}

// displayText prefers the text mirror the sync engine injects into
// metadata, falling back to raw page content for records indexed before
// the mirror existed.
func displayText(metadata map[string]any) string {
	if v, ok := metadata["text"].(string); ok && v != "" {
		return v
	}
	if v, ok := metadata["page_content"].(string); ok && v != "" {
		return v
	}
	return ""
}
