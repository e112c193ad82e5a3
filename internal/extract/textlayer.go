package extract

import (
	"context"
	"fmt"
	"os"

	pdflib "github.com/ledongthuc/pdf"
)

// PageText is the text-layer output of a single page. A per-page error is
// carried alongside the siblings instead of aborting them.
type PageText struct {
	Page int
	Text string
	Err  error
}

// TextLayerExtractor reads the embedded text layer of a document.
type TextLayerExtractor interface {
	Extract(ctx context.Context, data []byte) ([]PageText, error)
}

// PDFTextLayer extracts the embedded text layer with ledongthuc/pdf. The
// library wants a ReadSeeker plus size, so the bytes go through a temp file.
type PDFTextLayer struct{}

func (p *PDFTextLayer) Extract(ctx context.Context, data []byte) ([]PageText, error) {
	tmp, err := os.CreateTemp("", "legacylogic-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			pages = append(pages, PageText{Page: i, Err: err})
			continue
		}
		text, err := pageText(reader, i)
		pages = append(pages, PageText{Page: i, Text: text, Err: err})
	}
	return pages, nil
}

// pageText reads one page. Malformed content streams make the library panic
// on occasion; the recover keeps that contained to this page.
func pageText(reader *pdflib.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", n, r)
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return text, nil
}
