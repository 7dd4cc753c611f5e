package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shieldai.dev/ragshield/internal/vectorstore"
)

// Store is a minimal REST client to a Qdrant collection using cosine
// distance. It implements vectorstore.Store.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection with the given dimension if it
// does not exist yet. If it exists with a different vector size the
// configured embedding model cannot serve it, so this fails with
// ErrDimensionMismatch instead of letting queries break at runtime.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	existing, err := s.collectionDimension(ctx)
	if err == nil {
		if existing != dimension {
			return fmt.Errorf("%w: collection %q has size %d, configured %d",
				vectorstore.ErrDimensionMismatch, s.collection, existing, dimension)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

func (s *Store) collectionDimension(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Config.Params.Vectors.Size, nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":      pointID(r.ID),
			"vector":  r.Values,
			"payload": withRecordID(r.Metadata, r.ID),
		}
	}
	body := map[string]any{"points": points}
	return s.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), body, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		id := ""
		if v, ok := r.Payload["record_id"].(string); ok {
			id = v
		}
		matches = append(matches, vectorstore.Match{
			ID:       id,
			Score:    r.Score,
			Metadata: r.Payload,
		})
	}
	return matches, nil
}

// pointID maps our string record IDs onto a Qdrant-accepted ID by hashing
// them into a UUID-shaped string.
func pointID(recordID string) string {
	// Qdrant point IDs must be unsigned ints or UUIDs. Fold the record ID
	// hash into UUID formatting; record_<hex16> gives 16 hex chars, pad
	// deterministically to 32.
	hexPart := recordID
	if len(hexPart) > 7 && hexPart[:7] == "record_" {
		hexPart = hexPart[7:]
	}
	for len(hexPart) < 32 {
		hexPart += "0"
	}
	hexPart = hexPart[:32]
	return fmt.Sprintf("%s-%s-%s-%s-%s", hexPart[0:8], hexPart[8:12], hexPart[12:16], hexPart[16:20], hexPart[20:32])
}

func withRecordID(metadata map[string]any, id string) map[string]any {
	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload["record_id"] = id
	return payload
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s returned %s", method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return nil
}
