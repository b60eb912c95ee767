package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner returns canned output per command and records invocations.
type fakeRunner struct {
	mu       sync.Mutex
	handlers map[string]func(args []string) ([]byte, error)
	calls    []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{handlers: make(map[string]func(args []string) ([]byte, error))}
}

func (f *fakeRunner) on(name string, fn func(args []string) ([]byte, error)) *fakeRunner {
	f.handlers[name] = fn
	return f
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	fn := f.handlers[name]
	f.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return fn(args)
}

func (f *fakeRunner) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// fakeOCR returns one canned text per call, in order.
type fakeOCR struct {
	mu     sync.Mutex
	texts  []string
	err    error
	images [][]byte
}

func (f *fakeOCR) Recognize(_ context.Context, image []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, image)
	if f.err != nil {
		return "", f.err
	}
	if len(f.texts) == 0 {
		return "", nil
	}
	text := f.texts[0]
	f.texts = f.texts[1:]
	return text, nil
}

type fakeRasterizer struct {
	pages [][]byte
	err   error
	calls int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte) ([][]byte, error) {
	f.calls++
	return f.pages, f.err
}

func pdftotextReturns(out string) func([]string) ([]byte, error) {
	return func([]string) ([]byte, error) { return []byte(out), nil }
}

func failing(msg string) func([]string) ([]byte, error) {
	return func([]string) ([]byte, error) { return nil, errors.New(msg) }
}

// writeOutputs makes a fake pdftoppm that writes one file per suffix next
// to the output prefix passed as the last argument.
func writeOutputs(suffixes ...string) func([]string) ([]byte, error) {
	return func(args []string) ([]byte, error) {
		prefix := args[len(args)-1]
		for _, s := range suffixes {
			if err := os.WriteFile(prefix+"-"+s+".png", []byte("img"+s), 0o600); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

// buildZip creates an in-memory zip archive from name/content pairs.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func docxBody(paragraphs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

// slide builds a slide whose shapes carry the given texts. An empty string
// produces a picture-like shape without a text body.
func slide(shapes ...string) string {
	var b bytes.Buffer
	b.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`)
	b.WriteString(`<p:cSld><p:spTree>`)
	for _, s := range shapes {
		if s == "" {
			b.WriteString(`<p:sp><p:nvSpPr/></p:sp>`)
			continue
		}
		fmt.Fprintf(&b, `<p:sp><p:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, s)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}
