package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// PageImage is one rendered page, PNG-encoded, ready for OCR.
type PageImage struct {
	Page int
	PNG  []byte
	Err  error
}

// Rasterizer renders document pages to images at the given DPI.
type Rasterizer interface {
	Render(ctx context.Context, data []byte, dpi int) ([]PageImage, error)
}

// FitzRasterizer renders PDF pages through MuPDF.
type FitzRasterizer struct{}

func (r *FitzRasterizer) Render(ctx context.Context, data []byte, dpi int) ([]PageImage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf for render: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	pages := make([]PageImage, 0, numPages)
	for i := 0; i < numPages; i++ {
		pageNum := i + 1
		if err := ctx.Err(); err != nil {
			pages = append(pages, PageImage{Page: pageNum, Err: err})
			continue
		}
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			pages = append(pages, PageImage{Page: pageNum, Err: fmt.Errorf("render page %d: %w", pageNum, err)})
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			pages = append(pages, PageImage{Page: pageNum, Err: fmt.Errorf("encode page %d: %w", pageNum, err)})
			continue
		}
		pages = append(pages, PageImage{Page: pageNum, PNG: buf.Bytes()})
	}
	return pages, nil
}
