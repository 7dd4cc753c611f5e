package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shieldai.dev/ragshield/internal/vectorstore"
)

type stubEmbedder struct {
	fail bool
}

func (s *stubEmbedder) GetEmbedding(text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("model unavailable")
	}
	return []float32{1, 0, 0}, nil
}

type stubIndex struct {
	matches  []vectorstore.Match
	failQry  bool
	lastTopK int
}

func (s *stubIndex) EnsureCollection(ctx context.Context, dim int) error { return nil }

func (s *stubIndex) Upsert(ctx context.Context, records []vectorstore.Record) error { return nil }

func (s *stubIndex) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	s.lastTopK = topK
	if s.failQry {
		return nil, errors.New("index unavailable")
	}
	return s.matches, nil
}

func TestRetrieve_OrderedByScore(t *testing.T) {
	index := &stubIndex{matches: []vectorstore.Match{
		{ID: "record_d1", Score: 0.95, Metadata: map[string]any{"text": "closest document"}},
		{ID: "record_d2", Score: 0.80, Metadata: map[string]any{"text": "second document"}},
	}}
	retriever := NewRetriever(&stubEmbedder{}, index, 2)

	docs, err := retriever.Retrieve(context.Background(), "what is closest?")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "closest document", docs[0].Text)
	assert.Equal(t, "second document", docs[1].Text)
	assert.Greater(t, docs[0].Score, docs[1].Score)
	assert.Equal(t, 2, index.lastTopK)
}

func TestRetrieve_PrefersInjectedTextOverRawContent(t *testing.T) {
	index := &stubIndex{matches: []vectorstore.Match{
		{ID: "a", Score: 0.9, Metadata: map[string]any{"text": "mirrored text", "page_content": "raw content"}},
		{ID: "b", Score: 0.8, Metadata: map[string]any{"page_content": "raw only"}},
		{ID: "c", Score: 0.7, Metadata: map[string]any{"title": "no text at all"}},
	}}
	retriever := NewRetriever(&stubEmbedder{}, index, 5)

	docs, err := retriever.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, docs, 2, "hit with no recoverable text is dropped")

	assert.Equal(t, "mirrored text", docs[0].Text)
	assert.Equal(t, "raw only", docs[1].Text)
}

func TestRetrieve_IndexFailureYieldsEmptyResult(t *testing.T) {
	retriever := NewRetriever(&stubEmbedder{}, &stubIndex{failQry: true}, 5)

	docs, err := retriever.Retrieve(context.Background(), "query")
	require.NoError(t, err, "index outage must not fail the request path")
	assert.Empty(t, docs)
}

func TestRetrieve_EmbeddingFailurePropagates(t *testing.T) {
	retriever := NewRetriever(&stubEmbedder{fail: true}, &stubIndex{}, 5)

	_, err := retriever.Retrieve(context.Background(), "query")
	assert.Error(t, err)
}

func TestNewRetriever_DefaultTopK(t *testing.T) {
	index := &stubIndex{}
	retriever := NewRetriever(&stubEmbedder{}, index, 0)

	_, err := retriever.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, index.lastTopK)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("How do botnets spread?", "Mozi targets IoT devices.")
	assert.Contains(t, prompt, "Query: How do botnets spread?")
	assert.Contains(t, prompt, "Context: Mozi targets IoT devices.")
}
