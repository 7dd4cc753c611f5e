package feeds

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

const (
	ibmSecurityFeedURL = "https://www.ibm.com/blog/category/security/feed/"
	ibmArticleLimit    = 10
)

// IBMSecurityAdapter collects the latest articles from the IBM Security
// blog RSS feed. Only the most recent articles matter, so the output file
// is replaced each cycle.
type IBMSecurityAdapter struct {
	feedURL    string
	outputFile string
	parser     *gofeed.Parser
}

func NewIBMSecurityAdapter(outputFile string) *IBMSecurityAdapter {
	return &IBMSecurityAdapter{
		feedURL:    ibmSecurityFeedURL,
		outputFile: outputFile,
		parser:     gofeed.NewParser(),
	}
}

func (a *IBMSecurityAdapter) Name() string       { return "ibm-security" }
func (a *IBMSecurityAdapter) Mode() WriteMode    { return ModeReplace }
func (a *IBMSecurityAdapter) OutputFile() string { return a.outputFile }

func (a *IBMSecurityAdapter) Fetch(ctx context.Context) ([]Document, error) {
	feed, err := a.parser.ParseURLWithContext(a.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: ibm security feed fetch failed: %v", ErrSourceUnavailable, err)
	}

	items := feed.Items
	if len(items) > ibmArticleLimit {
		items = items[:ibmArticleLimit]
	}

	docs := make([]Document, 0, len(items))
	for _, item := range items {
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		docs = append(docs, NewDocument(summary, map[string]any{
			"title":  item.Title,
			"date":   item.Published,
			"link":   item.Link,
			"source": a.feedURL,
		}))
	}
	return docs, nil
}
