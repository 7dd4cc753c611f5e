package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shieldai.dev/ragshield/internal/vectorstore"
)

func collectionInfoBody(size int) string {
	return fmt.Sprintf(`{"result":{"config":{"params":{"vectors":{"size":%d,"distance":"Cosine"}}}}}`, size)
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]any)
			assert.Equal(t, float64(768), vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			created = true
			w.Write([]byte(`{"result":true}`))
		}
	}))
	defer server.Close()

	store := New(Config{URL: server.URL, Collection: "threat-intel"})
	require.NoError(t, store.EnsureCollection(context.Background(), 768))
	assert.True(t, created)
}

func TestEnsureCollection_DimensionMismatchIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(collectionInfoBody(384)))
	}))
	defer server.Close()

	store := New(Config{URL: server.URL, Collection: "threat-intel"})
	err := store.EnsureCollection(context.Background(), 768)
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestEnsureCollection_MatchingDimensionIsNoOp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "no create call expected")
		w.Write([]byte(collectionInfoBody(768)))
	}))
	defer server.Close()

	store := New(Config{URL: server.URL, Collection: "threat-intel"})
	assert.NoError(t, store.EnsureCollection(context.Background(), 768))
}

func TestUpsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Contains(t, r.URL.String(), "/collections/threat-intel/points")

		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Points, 1)

		assert.Len(t, body.Points[0].ID, 36, "point ID is UUID-shaped")
		assert.Equal(t, "record_0011223344556677", body.Points[0].Payload["record_id"])
		assert.Equal(t, "IP 1.2.3.4 flagged malicious", body.Points[0].Payload["text"])
		w.Write([]byte(`{"result":{"status":"acknowledged"}}`))
	}))
	defer server.Close()

	store := New(Config{URL: server.URL, Collection: "threat-intel"})
	err := store.Upsert(context.Background(), []vectorstore.Record{{
		ID:       "record_0011223344556677",
		Values:   []float32{0.1, 0.2},
		Metadata: map[string]any{"text": "IP 1.2.3.4 flagged malicious"},
	}})
	require.NoError(t, err)
}

func TestQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2), body["limit"])
		assert.Equal(t, true, body["with_payload"])

		w.Write([]byte(`{"result":[
			{"score":0.92,"payload":{"record_id":"record_aa","text":"closest"}},
			{"score":0.81,"payload":{"record_id":"record_bb","text":"second"}}
		]}`))
	}))
	defer server.Close()

	store := New(Config{URL: server.URL, Collection: "threat-intel"})
	matches, err := store.Query(context.Background(), []float32{0.5, 0.5}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "record_aa", matches[0].ID)
	assert.Equal(t, 0.92, matches[0].Score)
	assert.Equal(t, "closest", matches[0].Metadata["text"])
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestQuery_ServerErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := New(Config{URL: server.URL, Collection: "threat-intel"})
	_, err := store.Query(context.Background(), []float32{0.5}, 5)
	assert.Error(t, err)
}

func TestPointID_Deterministic(t *testing.T) {
	id1 := pointID("record_0011223344556677")
	id2 := pointID("record_0011223344556677")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 36)
	assert.NotEqual(t, id1, pointID("record_ffeeddccbbaa9988"))
}
