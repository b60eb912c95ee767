package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/poiesic/docsearch/ai"
)

// InvokeModelAPI is the subset of the Bedrock Runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Provider implements ai.Provider for Titan embedding models.
type Provider struct {
	client InvokeModelAPI
	model  string
	logger *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewProvider creates a Provider using the default AWS credential chain
// and the region from config.
func NewProvider(ctx context.Context, config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewProviderWithClient(bedrockruntime.NewFromConfig(awsCfg), config.Model), nil
}

// NewProviderWithClient creates a Provider over an existing client.
func NewProviderWithClient(client InvokeModelAPI, model string) *Provider {
	return &Provider{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "bedrock-provider"),
	}
}

// Invoke sends one InvokeModel request and decodes the embedding.
func (p *Provider) Invoke(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{InputText: text})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("invoking embedding model", "model", p.model, "length", len(text))
	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if isThrottle(err) {
			return nil, fmt.Errorf("%w: %v", ai.ErrThrottled, err)
		}
		return nil, fmt.Errorf("invoke %s: %w", p.model, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", p.model, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	return resp.Embedding, nil
}

func isThrottle(err error) bool {
	var throttling *types.ThrottlingException
	if errors.As(err, &throttling) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	return false
}
