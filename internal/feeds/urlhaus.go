package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	urlhausRecentURL = "https://urlhaus-api.abuse.ch/v1/urls/recent/"
	urlhausLimit     = 50 // avoid processing overload
)

// URLhausAdapter collects recently reported malware distribution URLs from
// abuse.ch URLhaus. Only the latest snapshot matters, so output is replaced
// every cycle.
type URLhausAdapter struct {
	baseURL    string
	outputFile string
	client     *http.Client
}

func NewURLhausAdapter(outputFile string) *URLhausAdapter {
	return &URLhausAdapter{
		baseURL:    urlhausRecentURL,
		outputFile: outputFile,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *URLhausAdapter) Name() string       { return "urlhaus" }
func (a *URLhausAdapter) Mode() WriteMode    { return ModeReplace }
func (a *URLhausAdapter) OutputFile() string { return a.outputFile }

type urlhausEntry struct {
	URL       string   `json:"url"`
	DateAdded string   `json:"date_added"`
	Threat    string   `json:"threat"`
	Reporter  string   `json:"reporter"`
	Status    string   `json:"url_status"`
	Tags      []string `json:"tags"`
}

func (a *URLhausAdapter) Fetch(ctx context.Context) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: urlhaus request failed: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: urlhaus returned status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var payload struct {
		URLs []urlhausEntry `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode urlhaus response: %w", err)
	}

	entries := payload.URLs
	if len(entries) > urlhausLimit {
		entries = entries[:urlhausLimit]
	}

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, a.normalize(e))
	}
	return docs, nil
}

func (a *URLhausAdapter) normalize(e urlhausEntry) Document {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	content := fmt.Sprintf("Malicious URL: %s. Threat Type: %s. Detected on: %s. Status: %s.",
		e.URL, e.Threat, e.DateAdded, e.Status)
	return NewDocument(content, map[string]any{
		"url":          e.URL,
		"threat_type":  e.Threat,
		"date_added":   e.DateAdded,
		"reporter":     e.Reporter,
		"status":       e.Status,
		"malware_type": tags,
		"source":       "URLhaus API",
	})
}
