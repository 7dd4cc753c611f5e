package feeds

import (
	"errors"
	"strings"
)

// Document is the normalized unit every feed adapter produces: the text that
// gets embedded plus whatever source-specific metadata came with it.
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

var ErrInvalidDocument = errors.New("document has no content")

// NewDocument builds a Document, guaranteeing metadata is never nil.
func NewDocument(content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{PageContent: content, Metadata: metadata}
}

// Validate rejects documents whose content is empty or whitespace-only.
// Adapters call this before writing their output files.
func (d Document) Validate() error {
	if strings.TrimSpace(d.PageContent) == "" {
		return ErrInvalidDocument
	}
	return nil
}
