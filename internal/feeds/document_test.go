package feeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument("some threat text", nil)
	require.NotNil(t, doc.Metadata)
	assert.Equal(t, "some threat text", doc.PageContent)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewDocument("IP 1.2.3.4 flagged malicious", nil).Validate())

	err := NewDocument("", nil).Validate()
	assert.ErrorIs(t, err, ErrInvalidDocument)

	err = NewDocument("   \n\t", nil).Validate()
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
