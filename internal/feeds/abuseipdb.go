package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	abuseIPDBBaseURL = "https://api.abuseipdb.com/api/v2"
	abuseIPLimit     = 50 // blacklist cap to stay under rate limits
	abuseMaxAgeDays  = 30
	abuseMinScore    = 90 // only high-confidence malicious IPs
)

// AbuseIPDBAdapter collects the AbuseIPDB blacklist and enriches each IP
// with its detailed abuse report. Snapshot feed: output replaces prior
// contents each cycle.
type AbuseIPDBAdapter struct {
	baseURL    string
	apiKey     string
	outputFile string
	client     *http.Client
}

func NewAbuseIPDBAdapter(apiKey, outputFile string) *AbuseIPDBAdapter {
	return &AbuseIPDBAdapter{
		baseURL:    abuseIPDBBaseURL,
		apiKey:     apiKey,
		outputFile: outputFile,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *AbuseIPDBAdapter) Name() string       { return "abuseipdb" }
func (a *AbuseIPDBAdapter) Mode() WriteMode    { return ModeReplace }
func (a *AbuseIPDBAdapter) OutputFile() string { return a.outputFile }

type abuseIPReport struct {
	IPAddress            string `json:"ipAddress"`
	AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	CountryCode          string `json:"countryCode"`
	Domain               string `json:"domain"`
	ISP                  string `json:"isp"`
	LastReportedAt       string `json:"lastReportedAt"`
	UsageType            string `json:"usageType"`
	TotalReports         int    `json:"totalReports"`
}

func (a *AbuseIPDBAdapter) Fetch(ctx context.Context) ([]Document, error) {
	ips, err := a.fetchBlacklist(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(ips))
	for i, ip := range ips {
		report, err := a.fetchIPDetails(ctx, ip)
		if err != nil {
			// One bad lookup should not sink the whole cycle.
			log.Printf("abuseipdb: [%d/%d] failed to check %s: %v", i+1, len(ips), ip, err)
			continue
		}
		docs = append(docs, a.normalize(report))
	}
	return docs, nil
}

func (a *AbuseIPDBAdapter) fetchBlacklist(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/blacklist?confidenceMinimum=%d", a.baseURL, abuseMinScore)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Key", a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: abuseipdb blacklist request failed: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: abuseipdb returned status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			IPAddress string `json:"ipAddress"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode abuseipdb blacklist: %w", err)
	}

	entries := payload.Data
	if len(entries) > abuseIPLimit {
		entries = entries[:abuseIPLimit]
	}
	ips := make([]string, 0, len(entries))
	for _, e := range entries {
		ips = append(ips, e.IPAddress)
	}
	return ips, nil
}

func (a *AbuseIPDBAdapter) fetchIPDetails(ctx context.Context, ip string) (*abuseIPReport, error) {
	u := fmt.Sprintf("%s/check?ipAddress=%s&maxAgeInDays=%d", a.baseURL, url.QueryEscape(ip), abuseMaxAgeDays)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Key", a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("abuseipdb check request failed for %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("abuseipdb check returned status %d for %s", resp.StatusCode, ip)
	}

	var payload struct {
		Data abuseIPReport `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode abuseipdb check response: %w", err)
	}
	return &payload.Data, nil
}

func (a *AbuseIPDBAdapter) normalize(r *abuseIPReport) Document {
	content := fmt.Sprintf("IP %s has been reported %d times. Abuse Score: %d. ISP: %s. Country: %s.",
		r.IPAddress, r.TotalReports, r.AbuseConfidenceScore, orUnknown(r.ISP), orUnknown(r.CountryCode))
	return NewDocument(content, map[string]any{
		"ip":            r.IPAddress,
		"abuse_score":   r.AbuseConfidenceScore,
		"country":       orUnknown(r.CountryCode),
		"domain":        orUnknown(r.Domain),
		"isp":           orUnknown(r.ISP),
		"last_reported": orNever(r.LastReportedAt),
		"categories":    orUnknown(r.UsageType),
		"total_reports": r.TotalReports,
		"source":        "AbuseIPDB API",
	})
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNever(s string) string {
	if s == "" {
		return "Never"
	}
	return s
}
