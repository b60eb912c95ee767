package extract

import (
	"context"
	"os"
	"path/filepath"
)

// OCR recognizes text in a single page image.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Rasterizer renders every page of a PDF to an image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// withTempFile writes data to a fresh temporary directory and calls fn with
// the file path. The directory is removed afterwards.
func withTempFile(name string, data []byte, fn func(dir, path string) error) error {
	dir, err := os.MkdirTemp("", "docsearch-extract-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	return fn(dir, path)
}
