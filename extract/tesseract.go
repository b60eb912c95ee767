package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultDPI is the resolution used when rasterizing PDF pages for OCR.
const DefaultDPI = 300

// Tesseract runs the tesseract command line OCR engine.
type Tesseract struct {
	runner   CommandRunner
	language string
}

var _ OCR = (*Tesseract)(nil)

// NewTesseract creates a Tesseract engine. An empty language uses tesseract's default.
func NewTesseract(runner CommandRunner, language string) *Tesseract {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Tesseract{runner: runner, language: language}
}

// Recognize writes the image to disk and returns tesseract's stdout.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	var text string
	err := withTempFile("page.png", image, func(_, path string) error {
		args := []string{path, "stdout"}
		if t.language != "" {
			args = append(args, "-l", t.language)
		}
		out, err := t.runner.Run(ctx, "tesseract", args...)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(string(out))
		return nil
	})
	return text, err
}

// PDFToPPM rasterizes PDFs with poppler's pdftoppm.
type PDFToPPM struct {
	runner CommandRunner
	dpi    int
}

var _ Rasterizer = (*PDFToPPM)(nil)

// NewPDFToPPM creates a rasterizer. A non-positive dpi uses DefaultDPI.
func NewPDFToPPM(runner CommandRunner, dpi int) *PDFToPPM {
	if runner == nil {
		runner = ExecRunner{}
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PDFToPPM{runner: runner, dpi: dpi}
}

// Rasterize renders each page to PNG and returns the images in page order.
func (p *PDFToPPM) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	var pages [][]byte
	err := withTempFile("input.pdf", pdf, func(dir, path string) error {
		prefix := filepath.Join(dir, "page")
		if _, err := p.runner.Run(ctx, "pdftoppm", "-r", strconv.Itoa(p.dpi), "-png", path, prefix); err != nil {
			return err
		}

		files, err := filepath.Glob(prefix + "-*.png")
		if err != nil {
			return err
		}
		// pdftoppm zero-pads page numbers by page count, so sort numerically
		sort.Slice(files, func(i, j int) bool {
			return pageNumber(files[i]) < pageNumber(files[j])
		})

		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			pages = append(pages, data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rasterize pdf: %w", err)
	}
	return pages, nil
}

// pageNumber parses N from ".../page-N.png".
func pageNumber(file string) int {
	base := strings.TrimSuffix(filepath.Base(file), ".png")
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
