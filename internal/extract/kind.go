package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind classifies an upload by how its pages can be read.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// ErrUnsupportedFormat rejects anything that is not a page-oriented document
// or a raster image. Unsupported sources are refused outright, not guessed at.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SupportedExtensions maps accepted file extensions to their kind.
var SupportedExtensions = map[string]Kind{
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".bmp":  KindImage,
	".webp": KindImage,
}

// DetectKind classifies a filename by its extension.
func DetectKind(filename string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", fmt.Errorf("%w: no file extension", ErrUnsupportedFormat)
	}
	kind, ok := SupportedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return kind, nil
}

// IsSupportedExtension checks whether a filename can be processed at all.
func IsSupportedExtension(filename string) bool {
	_, err := DetectKind(filename)
	return err == nil
}
