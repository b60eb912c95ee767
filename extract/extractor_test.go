package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var goodText = strings.Repeat("The cremation grounds lie beside the river ghats. ", 10)

func newTestExtractor(t *testing.T, runner CommandRunner, opts ...Option) *Extractor {
	t.Helper()
	e, err := New(append([]Option{WithRunner(runner)}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestExtract_PDFNativeTextAccepted(t *testing.T) {
	runner := newFakeRunner().on("pdftotext", pdftotextReturns(goodText+"\f"))
	ocr := &fakeOCR{}
	raster := &fakeRasterizer{}
	e := newTestExtractor(t, runner, WithOCR(ocr), WithRasterizer(raster))

	text, err := e.Extract(context.Background(), []byte("%PDF-1.7"), core.FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, strings.TrimRight(goodText, " "), text)
	assert.Equal(t, 0, raster.calls)
	assert.Empty(t, ocr.images)
}

func TestExtract_PDFPagesJoinedWithNewline(t *testing.T) {
	page := strings.Repeat("alpha beta gamma ", 10)
	runner := newFakeRunner().on("pdftotext", pdftotextReturns(page+"\f"+page+"\f"))
	e := newTestExtractor(t, runner, WithOCR(&fakeOCR{}), WithRasterizer(&fakeRasterizer{}))

	text, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
	require.NoError(t, err)

	trimmed := strings.TrimRight(page, " ")
	assert.Equal(t, trimmed+"\n"+trimmed, text)
}

func TestExtract_PDFGates(t *testing.T) {
	tests := []struct {
		name   string
		native string
	}{
		{"short text fails length gate", "Scanned page"},
		{"symbol noise fails density gate", strings.Repeat("#@! %$ ^&* ", 40)},
		{"empty text layer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner().on("pdftotext", pdftotextReturns(tt.native))
			ocr := &fakeOCR{texts: []string{"page one text", "page two text"}}
			raster := &fakeRasterizer{pages: [][]byte{[]byte("p1"), []byte("p2")}}
			e := newTestExtractor(t, runner, WithOCR(ocr), WithRasterizer(raster))

			text, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
			require.NoError(t, err)

			assert.Equal(t, "page one text\npage two text", text)
			assert.Equal(t, 1, raster.calls)
			assert.Equal(t, [][]byte{[]byte("p1"), []byte("p2")}, ocr.images)
		})
	}
}

func TestExtract_PDFCustomThresholds(t *testing.T) {
	runner := newFakeRunner().on("pdftotext", pdftotextReturns("Short but fine"))
	raster := &fakeRasterizer{}
	e := newTestExtractor(t, runner, WithOCR(&fakeOCR{}), WithRasterizer(raster),
		WithMinTextLength(5), WithMinDensity(0.5))

	text, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "Short but fine", text)
	assert.Equal(t, 0, raster.calls)
}

func TestExtract_PDFToolFailureFallsBackToOCR(t *testing.T) {
	runner := newFakeRunner().on("pdftotext", failing("Syntax Error: Couldn't find trailer dictionary"))
	ocr := &fakeOCR{texts: []string{"recovered"}}
	raster := &fakeRasterizer{pages: [][]byte{[]byte("p1")}}
	e := newTestExtractor(t, runner, WithOCR(ocr), WithRasterizer(raster))

	text, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
}

func TestExtract_PDFCorruptFails(t *testing.T) {
	runner := newFakeRunner().on("pdftotext", failing("not a pdf"))
	raster := &fakeRasterizer{err: errors.New("pdftoppm: bad file")}
	e := newTestExtractor(t, runner, WithOCR(&fakeOCR{}), WithRasterizer(raster))

	_, err := e.Extract(context.Background(), []byte("garbage"), core.FormatPDF)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)

	var extErr *core.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, core.FormatPDF, extErr.Format)
}

func TestExtract_PDFOCRFailureKeepsNativeText(t *testing.T) {
	runner := newFakeRunner().on("pdftotext", pdftotextReturns("Short native text"))
	raster := &fakeRasterizer{pages: [][]byte{[]byte("p1")}}
	e := newTestExtractor(t, runner, WithOCR(&fakeOCR{err: errors.New("engine crashed")}), WithRasterizer(raster))

	text, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "Short native text", text)
}

func TestExtract_PDFWithoutOCR(t *testing.T) {
	runner := newFakeRunner().on("pdftotext", pdftotextReturns(""))
	e := newTestExtractor(t, runner, WithOCR(nil))

	_, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
	assert.ErrorIs(t, err, ErrNoOCR)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestExtract_DefaultPipelineUsesPopplerAndTesseract(t *testing.T) {
	runner := newFakeRunner().
		on("pdftotext", pdftotextReturns("")).
		on("pdftoppm", writeOutputs("1", "2")).
		on("tesseract", pdftotextReturns("ocr line\n"))
	e := newTestExtractor(t, runner)

	text, err := e.Extract(context.Background(), []byte("%PDF"), core.FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "ocr line\nocr line", text)
	assert.Equal(t, 1, runner.called("pdftoppm"))
	assert.Equal(t, 2, runner.called("tesseract"))
}

func TestExtract_Text(t *testing.T) {
	e := newTestExtractor(t, newFakeRunner())

	text, err := e.Extract(context.Background(), []byte("\xef\xbb\xbfcaf\xc3\xa9 \xff\xfe ok"), core.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9 \uFFFD ok", text)
}

func TestExtract_ImagePolicies(t *testing.T) {
	t.Run("ocr", func(t *testing.T) {
		ocr := &fakeOCR{texts: []string{"sign reads EXIT"}}
		e := newTestExtractor(t, newFakeRunner(), WithOCR(ocr))

		text, err := e.Extract(context.Background(), []byte("png"), core.FormatImage)
		require.NoError(t, err)
		assert.Equal(t, "sign reads EXIT", text)
		assert.Len(t, ocr.images, 1)
	})

	t.Run("skip", func(t *testing.T) {
		ocr := &fakeOCR{texts: []string{"unused"}}
		e := newTestExtractor(t, newFakeRunner(), WithOCR(ocr), WithImagePolicy(ImageSkip))

		text, err := e.Extract(context.Background(), []byte("png"), core.FormatImage)
		require.NoError(t, err)
		assert.Empty(t, text)
		assert.Empty(t, ocr.images)
	})

	t.Run("ocr failure", func(t *testing.T) {
		e := newTestExtractor(t, newFakeRunner(), WithOCR(&fakeOCR{err: errors.New("bad image")}))

		_, err := e.Extract(context.Background(), []byte("png"), core.FormatImage)
		assert.ErrorIs(t, err, core.ErrExtraction)
	})
}

func TestExtract_UnknownFormat(t *testing.T) {
	runner := newFakeRunner()
	e := newTestExtractor(t, runner)

	text, err := e.Extract(context.Background(), []byte("PK..."), core.FormatUnknown)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Empty(t, runner.calls)
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newTestExtractor(t, newFakeRunner())

	_, err := e.Extract(ctx, []byte("x"), core.FormatText)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrExtraction)
}

func TestExtractDocument(t *testing.T) {
	e := newTestExtractor(t, newFakeRunner())

	_, err := e.ExtractDocument(context.Background(), &core.RawDocument{Key: "broken.docx", Format: core.FormatDOCX, Content: []byte("nope")})
	var extErr *core.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "broken.docx", extErr.Source)
	assert.Contains(t, err.Error(), "broken.docx")

	_, err = e.ExtractDocument(context.Background(), &core.RawDocument{Format: core.FormatText})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)

	text, err := e.ExtractDocument(context.Background(), &core.RawDocument{Key: "a.txt", Format: core.FormatText, Content: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestNew_Options(t *testing.T) {
	_, err := New(WithMinDensity(1.5))
	assert.Error(t, err)

	_, err = New(WithMinTextLength(-1))
	assert.Error(t, err)

	_, err = New(WithImagePolicy("sometimes"))
	assert.ErrorIs(t, err, ErrInvalidImagePolicy)

	_, err = New(WithRunner(nil))
	assert.Error(t, err)
}

func TestParseImagePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ImagePolicy
		wantErr bool
	}{
		{"", ImageOCR, false},
		{"ocr", ImageOCR, false},
		{" SKIP ", ImageSkip, false},
		{"never", "", true},
	}
	for _, tt := range tests {
		got, err := ParseImagePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestAssess(t *testing.T) {
	q := Assess("  ab12  ")
	assert.Equal(t, 4, q.Length)
	assert.InDelta(t, 0.5, q.Density, 1e-9)

	q = Assess("")
	assert.Equal(t, 0, q.Length)
	assert.Zero(t, q.Density)

	assert.Equal(t, "length", gateFailure(Quality{Length: 199, Density: 1}, 200, 0.5))
	assert.Equal(t, "density", gateFailure(Quality{Length: 500, Density: 0.49}, 200, 0.5))
	assert.Empty(t, gateFailure(Quality{Length: 200, Density: 0.5}, 200, 0.5))
}
