package extract

import (
	"context"
	"strings"
)

// pdfText reads the native text layer with pdftotext. Pages are separated
// by form feeds in pdftotext output and are re-joined with newlines.
func pdfText(ctx context.Context, runner CommandRunner, data []byte) (string, error) {
	var text string
	err := withTempFile("input.pdf", data, func(_, path string) error {
		out, err := runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
		if err != nil {
			return err
		}
		text = joinPages(strings.Split(string(out), "\f"))
		return nil
	})
	return text, err
}

func joinPages(pages []string) string {
	// pdftotext terminates the last page with a form feed too
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	for i, page := range pages {
		pages[i] = strings.TrimRight(page, " \t\r\n")
	}
	return strings.Join(pages, "\n")
}
