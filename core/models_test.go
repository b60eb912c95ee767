package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want Format
	}{
		{"report.pdf", FormatPDF},
		{"REPORT.PDF", FormatPDF},
		{"notes.docx", FormatDOCX},
		{"legacy.doc", FormatDOCX},
		{"deck.pptx", FormatPPTX},
		{"deck.ppt", FormatPPTX},
		{"readme.md", FormatText},
		{"plain.txt", FormatText},
		{"scan.jpg", FormatImage},
		{"scan.jpeg", FormatImage},
		{"scan.png", FormatImage},
		{"archive.zip", FormatUnknown},
		{"no-extension", FormatUnknown},
		{"dir/nested/Guide.Pdf", FormatPDF},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromKey(tt.key))
		})
	}
}

func TestExtractionError_Is(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := fmt.Errorf("ingest: %w", &ExtractionError{Source: "a.docx", Format: FormatDOCX, Err: cause})

	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrEmbedding)
	assert.Contains(t, err.Error(), "a.docx")
}

func TestEmbeddingError_Is(t *testing.T) {
	err := &EmbeddingError{Attempts: 5, Retryable: true, Err: ErrMaxRetriesExceeded}

	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Contains(t, err.Error(), "5 attempt")

	var embErr *EmbeddingError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &embErr))
	assert.True(t, embErr.Retryable)
}
