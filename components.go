package docsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/ai/bedrock"
	"github.com/poiesic/docsearch/ai/mock"
	"github.com/poiesic/docsearch/ai/openai"
	"github.com/poiesic/docsearch/config"
	"github.com/poiesic/docsearch/extract"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
	"github.com/poiesic/docsearch/storage/s3"
)

// openStore creates the blob store named by cfg. The returned closer is nil
// when the store holds no resources.
func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.BlobStore, io.Closer, error) {
	switch cfg.Type {
	case config.StorageBadger:
		var (
			store *badger.BlobStore
			err   error
		)
		if cfg.InMemory {
			store, err = badger.NewMemoryBlobStore(badger.WithLogger(logger))
		} else {
			store, err = badger.OpenBlobStore(cfg.Path, badger.WithLogger(logger))
		}
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StorageS3:
		store, err := s3.Open(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// newProvider creates the raw embedding provider named by cfg.
func newProvider(ctx context.Context, cfg *ai.Config) (ai.Provider, error) {
	switch cfg.Provider {
	case ai.ProviderBedrock:
		return bedrock.NewProvider(ctx, cfg)
	case ai.ProviderOpenAI:
		return openai.NewProvider(cfg)
	case ai.ProviderMock:
		return mock.NewMockEmbedder().WithDimension(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, cfg.Provider)
	}
}

// newEmbedder wraps the configured provider in the retrying, normalizing
// ResilientEmbedder.
func newEmbedder(ctx context.Context, cfg config.EmbedderConfig, logger *slog.Logger) (*ai.ResilientEmbedder, error) {
	aiCfg := cfg.AIConfig()
	if err := aiCfg.Validate(); err != nil {
		return nil, err
	}
	provider, err := newProvider(ctx, aiCfg)
	if err != nil {
		return nil, err
	}
	opts := append(aiCfg.ResilientOptions(), ai.WithLogger(logger))
	return ai.NewResilientEmbedder(provider, opts...)
}

// newExtractor builds an Extractor with the configured OCR engine.
func newExtractor(ctx context.Context, cfg config.ExtractorConfig, logger *slog.Logger) (*extract.Extractor, error) {
	policy, err := extract.ParseImagePolicy(cfg.ImagePolicy)
	if err != nil {
		return nil, err
	}

	runner := extract.ExecRunner{}
	opts := []extract.Option{
		extract.WithRunner(runner),
		extract.WithMinTextLength(cfg.MinTextLength),
		extract.WithMinDensity(cfg.MinDensity),
		extract.WithImagePolicy(policy),
		extract.WithRasterizer(extract.NewPDFToPPM(runner, cfg.DPI)),
		extract.WithLogger(logger),
	}

	switch cfg.OCR {
	case config.OCRTesseract:
		opts = append(opts, extract.WithOCR(extract.NewTesseract(runner, cfg.Language)))
	case config.OCRTextract:
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config for textract: %w", err)
		}
		opts = append(opts, extract.WithOCR(extract.NewTextractFromConfig(awsCfg)))
	case config.OCRNone:
		opts = append(opts, extract.WithOCR(nil))
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCR)
	}

	return extract.New(opts...)
}
