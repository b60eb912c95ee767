// Package config loads the docsearch YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/chunker"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/extract"
	"github.com/poiesic/docsearch/index"
	"gopkg.in/yaml.v3"
)

// Storage backend names.
const (
	StorageBadger = "badger"
	StorageS3     = "s3"
)

// OCR engine names.
const (
	OCRTesseract = "tesseract"
	OCRTextract  = "textract"
	OCRNone      = "none"
)

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Type           string `yaml:"type"`
	Path           string `yaml:"path,omitempty"`
	InMemory       bool   `yaml:"in_memory,omitempty"`
	Bucket         string `yaml:"bucket,omitempty"`
	Region         string `yaml:"region,omitempty"`
	SnapshotPrefix string `yaml:"snapshot_prefix"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	Host              string        `yaml:"host,omitempty"`
	TokenEnv          string        `yaml:"token_env,omitempty"`
	Region            string        `yaml:"region,omitempty"`
	Dimension         int           `yaml:"dimension"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
}

// ExtractorConfig configures text extraction and OCR.
type ExtractorConfig struct {
	MinTextLength int     `yaml:"min_text_length"`
	MinDensity    float64 `yaml:"min_density"`
	ImagePolicy   string  `yaml:"image_policy"`
	OCR           string  `yaml:"ocr"`
	Language      string  `yaml:"language,omitempty"`
	DPI           int     `yaml:"dpi"`
	Region        string  `yaml:"region,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IngestionConfig configures the ingestion pipeline.
type IngestionConfig struct {
	PoolSize int           `yaml:"pool_size,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SearchConfig configures ranking.
type SearchConfig struct {
	K              int           `yaml:"k"`
	SemanticWeight float64       `yaml:"semantic_weight"`
	KeywordWeight  float64       `yaml:"keyword_weight"`
	Timeout        time.Duration `yaml:"timeout"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Storage   StorageConfig   `yaml:"storage"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Search    SearchConfig    `yaml:"search"`
}

// Load reads a config from path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the default configuration: a local Badger store and
// Bedrock Titan embeddings.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageBadger
	}
	if cfg.Storage.Type == StorageBadger && cfg.Storage.Path == "" && !cfg.Storage.InMemory {
		cfg.Storage.Path = "./docsearch_db"
	}
	if cfg.Storage.SnapshotPrefix == "" {
		cfg.Storage.SnapshotPrefix = index.DefaultPrefix
	}

	defaults := ai.DefaultConfig()
	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = defaults.Provider
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = defaults.Model
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = core.DefaultDimension
	}
	if cfg.Embedder.MaxAttempts == 0 {
		cfg.Embedder.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Embedder.BaseDelay == 0 {
		cfg.Embedder.BaseDelay = defaults.BaseDelay
	}
	switch cfg.Embedder.Provider {
	case ai.ProviderBedrock:
		if cfg.Embedder.Region == "" {
			cfg.Embedder.Region = defaults.Region
		}
	case ai.ProviderOpenAI:
		if cfg.Embedder.Host == "" {
			cfg.Embedder.Host = "https://api.openai.com/v1"
		}
		if cfg.Embedder.TokenEnv == "" {
			cfg.Embedder.TokenEnv = "OPENAI_API_KEY"
		}
	}

	if cfg.Extractor.MinTextLength == 0 {
		cfg.Extractor.MinTextLength = extract.DefaultMinTextLength
	}
	if cfg.Extractor.MinDensity == 0 {
		cfg.Extractor.MinDensity = extract.DefaultMinDensity
	}
	if cfg.Extractor.ImagePolicy == "" {
		cfg.Extractor.ImagePolicy = string(extract.ImageOCR)
	}
	if cfg.Extractor.OCR == "" {
		cfg.Extractor.OCR = OCRTesseract
	}
	if cfg.Extractor.DPI == 0 {
		cfg.Extractor.DPI = extract.DefaultDPI
	}

	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = chunker.DefaultChunkSize
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = chunker.DefaultOverlap
	}

	if cfg.Ingestion.Timeout == 0 {
		cfg.Ingestion.Timeout = 5 * time.Minute
	}

	if cfg.Search.K == 0 {
		cfg.Search.K = 5
	}
	if cfg.Search.SemanticWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.SemanticWeight = 0.7
		cfg.Search.KeywordWeight = 0.3
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 30 * time.Second
	}
}

// Validate checks that the configuration is complete and consistent.
func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case StorageBadger:
		if c.Storage.Path == "" && !c.Storage.InMemory {
			return errors.New("config: storage.path is required for badger")
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("config: storage.bucket is required for s3")
		}
	default:
		return fmt.Errorf("config: unknown storage type %q", c.Storage.Type)
	}

	if err := c.Embedder.AIConfig().Validate(); err != nil {
		return err
	}

	if _, err := extract.ParseImagePolicy(c.Extractor.ImagePolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Extractor.OCR {
	case OCRTesseract, OCRTextract, OCRNone:
	default:
		return fmt.Errorf("config: unknown ocr engine %q", c.Extractor.OCR)
	}
	if c.Extractor.MinDensity < 0 || c.Extractor.MinDensity > 1 {
		return fmt.Errorf("config: extractor.min_density must be within [0, 1]: %v", c.Extractor.MinDensity)
	}

	if c.Chunker.Size < 1 || c.Chunker.Overlap < 0 {
		return fmt.Errorf("config: invalid chunker size %d / overlap %d", c.Chunker.Size, c.Chunker.Overlap)
	}
	if c.Ingestion.Timeout < 0 || c.Search.Timeout < 0 {
		return errors.New("config: timeouts cannot be negative")
	}
	if c.Search.K < 1 {
		return fmt.Errorf("config: search.k must be positive: %d", c.Search.K)
	}
	if c.Search.SemanticWeight < 0 || c.Search.KeywordWeight < 0 {
		return errors.New("config: search weights cannot be negative")
	}
	return nil
}

// AIConfig converts the embedder section into an ai.Config. The token is
// read from the environment variable named by TokenEnv.
func (e EmbedderConfig) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(e.Provider),
		ai.WithModel(e.Model),
		ai.WithDimension(e.Dimension),
		ai.WithMaxAttempts(e.MaxAttempts),
		ai.WithBaseDelay(e.BaseDelay),
		ai.WithRequestsPerSecond(e.RequestsPerSecond),
	}
	if e.Host != "" {
		opts = append(opts, ai.WithHost(e.Host))
	}
	if e.Region != "" {
		opts = append(opts, ai.WithRegion(e.Region))
	}
	if e.TokenEnv != "" {
		if token := os.Getenv(e.TokenEnv); token != "" {
			opts = append(opts, ai.WithToken(token))
		}
	}
	return ai.NewConfig(opts...)
}
