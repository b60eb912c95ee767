package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docsearch/core"
)

// ImagePolicy controls how image uploads are handled.
type ImagePolicy string

const (
	// ImageOCR runs OCR on images.
	ImageOCR ImagePolicy = "ocr"
	// ImageSkip returns empty text for images.
	ImageSkip ImagePolicy = "skip"
)

// ParseImagePolicy validates a policy name. Empty selects ImageOCR.
func ParseImagePolicy(s string) (ImagePolicy, error) {
	switch ImagePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImageOCR:
		return ImageOCR, nil
	case ImageSkip:
		return ImageSkip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidImagePolicy, s)
	}
}

// TextExtractor converts document bytes to text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, format core.Format) (string, error)
}

// Extractor is the default TextExtractor.
type Extractor struct {
	runner        CommandRunner
	rasterizer    Rasterizer
	ocr           OCR
	ocrSet        bool
	minTextLength int
	minDensity    float64
	imagePolicy   ImagePolicy
	logger        *slog.Logger
}

var _ TextExtractor = (*Extractor)(nil)

// Option configures an Extractor.
type Option func(*Extractor) error

// WithRunner sets the runner used for pdftotext. Default is ExecRunner.
func WithRunner(runner CommandRunner) Option {
	return func(e *Extractor) error {
		if runner == nil {
			return errors.New("runner cannot be nil")
		}
		e.runner = runner
		return nil
	}
}

// WithOCR sets the OCR engine. Passing nil disables OCR.
func WithOCR(ocr OCR) Option {
	return func(e *Extractor) error {
		e.ocr = ocr
		e.ocrSet = true
		return nil
	}
}

// WithRasterizer sets the PDF page rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Extractor) error {
		e.rasterizer = r
		return nil
	}
}

// WithMinTextLength sets the PDF length gate. Default is 200.
func WithMinTextLength(n int) Option {
	return func(e *Extractor) error {
		if n < 0 {
			return fmt.Errorf("min text length cannot be negative: %d", n)
		}
		e.minTextLength = n
		return nil
	}
}

// WithMinDensity sets the PDF alphanumeric density gate. Default is 0.5.
func WithMinDensity(d float64) Option {
	return func(e *Extractor) error {
		if d < 0 || d > 1 {
			return fmt.Errorf("min density must be within [0,1]: %v", d)
		}
		e.minDensity = d
		return nil
	}
}

// WithImagePolicy sets how images are handled. Default is ImageOCR.
func WithImagePolicy(p ImagePolicy) Option {
	return func(e *Extractor) error {
		if _, err := ParseImagePolicy(string(p)); err != nil {
			return err
		}
		e.imagePolicy = p
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "extractor")
		return nil
	}
}

// New creates an Extractor. By default external tools run through
// ExecRunner, pages are rasterized with pdftoppm and OCR uses tesseract.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		runner:        ExecRunner{},
		minTextLength: DefaultMinTextLength,
		minDensity:    DefaultMinDensity,
		imagePolicy:   ImageOCR,
		logger:        slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.rasterizer == nil {
		e.rasterizer = NewPDFToPPM(e.runner, DefaultDPI)
	}
	if !e.ocrSet {
		e.ocr = NewTesseract(e.runner, "")
	}
	return e, nil
}

// ExtractDocument validates doc and extracts its text.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *core.RawDocument) (string, error) {
	if err := core.ValidateRawDocument(doc); err != nil {
		return "", err
	}
	text, err := e.Extract(ctx, doc.Content, doc.Format)
	var extErr *core.ExtractionError
	if errors.As(err, &extErr) {
		extErr.Source = doc.Key
	}
	return text, err
}

// Extract returns the text of data interpreted as format.
func (e *Extractor) Extract(ctx context.Context, data []byte, format core.Format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch format {
	case core.FormatPDF:
		text, err = e.extractPDF(ctx, data)
	case core.FormatDOCX:
		text, err = docxText(data)
	case core.FormatPPTX:
		text, err = pptxText(data)
	case core.FormatText:
		text = decodeText(data)
	case core.FormatImage:
		text, err = e.extractImage(ctx, data)
	default:
		e.logger.Info("unsupported format, skipping extraction", "format", format)
		return "", nil
	}

	if err != nil {
		// Cancellation is not a property of the document
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &core.ExtractionError{Format: format, Err: err}
	}
	e.logger.Debug("extracted text", "format", format, "length", len(text))
	return text, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	native, err := pdfText(ctx, e.runner, data)
	if err != nil {
		e.logger.Warn("native pdf text extraction failed", "err", err)
		native = ""
	}

	q := Assess(native)
	reason := gateFailure(q, e.minTextLength, e.minDensity)
	if reason == "" {
		return native, nil
	}

	e.logger.Info("pdf text layer rejected, falling back to OCR",
		"gate", reason, "length", q.Length, "density", q.Density)

	ocrText, ocrErr := e.ocrPDF(ctx, data)
	if ocrErr == nil {
		return ocrText, nil
	}
	if strings.TrimSpace(native) != "" {
		e.logger.Warn("ocr fallback failed, keeping native text", "err", ocrErr)
		return native, nil
	}
	if err != nil {
		return "", errors.Join(err, ocrErr)
	}
	return "", ocrErr
}

func (e *Extractor) ocrPDF(ctx context.Context, data []byte) (string, error) {
	if e.ocr == nil || e.rasterizer == nil {
		return "", ErrNoOCR
	}
	pages, err := e.rasterizer.Rasterize(ctx, data)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		text, err := e.ocr.Recognize(ctx, page)
		if err != nil {
			return "", fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n"), nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	if e.imagePolicy == ImageSkip {
		e.logger.Debug("image policy is skip, returning empty text")
		return "", nil
	}
	if e.ocr == nil {
		return "", ErrNoOCR
	}
	return e.ocr.Recognize(ctx, data)
}
