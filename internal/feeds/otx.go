package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const otxPulsesURL = "https://otx.alienvault.com/api/v1/pulses/subscribed"

// OTXAdapter collects subscribed pulses from AlienVault OTX. Pulses are
// events, not a snapshot: historical pulses stay queryable, so the output
// file is appended to rather than replaced.
type OTXAdapter struct {
	baseURL    string
	apiKey     string
	outputFile string
	client     *http.Client
}

func NewOTXAdapter(apiKey, outputFile string) *OTXAdapter {
	return &OTXAdapter{
		baseURL:    otxPulsesURL,
		apiKey:     apiKey,
		outputFile: outputFile,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *OTXAdapter) Name() string       { return "otx" }
func (a *OTXAdapter) Mode() WriteMode    { return ModeAppend }
func (a *OTXAdapter) OutputFile() string { return a.outputFile }

type otxPulse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	AuthorName  string   `json:"author_name"`
	Created     string   `json:"created"`
	Tags        []string `json:"tags"`
	Indicators  []struct {
		Indicator string `json:"indicator"`
	} `json:"indicators"`
}

func (a *OTXAdapter) Fetch(ctx context.Context) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-OTX-API-KEY", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: otx request failed: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: otx returned status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var payload struct {
		Results []otxPulse `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode otx response: %w", err)
	}

	docs := make([]Document, 0, len(payload.Results))
	for _, pulse := range payload.Results {
		docs = append(docs, a.normalize(pulse))
	}
	return docs, nil
}

func (a *OTXAdapter) normalize(p otxPulse) Document {
	content := p.Description
	if content == "" {
		content = "No description available."
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	indicators := make([]string, 0, len(p.Indicators))
	for _, ind := range p.Indicators {
		indicators = append(indicators, ind.Indicator)
	}

	return NewDocument(content, map[string]any{
		"title":      p.Name,
		"author":     p.AuthorName,
		"created":    p.Created,
		"tags":       tags,
		"indicators": indicators,
		"source":     "AlienVault OTX",
	})
}
