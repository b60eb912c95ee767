package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// DetectDocumentTextAPI is the subset of the Textract client used here.
type DetectDocumentTextAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Textract recognizes text with AWS Textract's synchronous API.
type Textract struct {
	client DetectDocumentTextAPI
}

var _ OCR = (*Textract)(nil)

// NewTextract creates an OCR engine over a Textract client.
func NewTextract(client DetectDocumentTextAPI) *Textract {
	return &Textract{client: client}
}

// NewTextractFromConfig creates an OCR engine from an AWS config.
func NewTextractFromConfig(cfg aws.Config) *Textract {
	return NewTextract(textract.NewFromConfig(cfg))
}

// Recognize sends the image bytes and joins LINE blocks with newlines.
func (t *Textract) Recognize(ctx context.Context, image []byte) (string, error) {
	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return "", fmt.Errorf("textract: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	return strings.Join(lines, "\n"), nil
}
