package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otxSample = `{
  "results": [
    {
      "name": "Mozi botnet resurgence",
      "description": "New Mozi samples observed targeting IoT devices.",
      "author_name": "researcher1",
      "created": "2025-07-01T08:00:00",
      "tags": ["botnet", "iot"],
      "indicators": [
        {"indicator": "1.2.3.4"},
        {"indicator": "evil.example"}
      ]
    },
    {
      "name": "Empty pulse",
      "description": "",
      "author_name": "researcher2",
      "created": "2025-07-01T09:00:00"
    }
  ]
}`

func TestOTXFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-OTX-API-KEY"))
		w.Write([]byte(otxSample))
	}))
	defer server.Close()

	adapter := NewOTXAdapter("test-key", "unused.json")
	adapter.baseURL = server.URL

	docs, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "New Mozi samples observed targeting IoT devices.", docs[0].PageContent)
	assert.Equal(t, "Mozi botnet resurgence", docs[0].Metadata["title"])
	assert.Equal(t, "researcher1", docs[0].Metadata["author"])
	assert.Equal(t, []string{"1.2.3.4", "evil.example"}, docs[0].Metadata["indicators"])

	// A pulse without a description still yields indexable content.
	assert.Equal(t, "No description available.", docs[1].PageContent)
}

func TestOTXMode(t *testing.T) {
	adapter := NewOTXAdapter("k", "otx_threat_intelligence.json")
	assert.Equal(t, ModeAppend, adapter.Mode())
	assert.Equal(t, "otx", adapter.Name())
}
