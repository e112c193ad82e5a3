package extract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// OCREngine recognizes text in a single page image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Name() string
}

// TesseractEngine runs OCR in-process through the tesseract C API. A fresh
// client per call keeps the engine safe for concurrent pages.
type TesseractEngine struct {
	Languages []string
	DPI       int
}

func (t *TesseractEngine) Name() string { return "tesseract" }

func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := gosseract.NewClient()
	defer c.Close()

	if t.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(t.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if len(t.Languages) > 0 {
		if err := c.SetLanguage(t.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
