package parser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docvoice/internal/apperr"
	"github.com/dgallion1/docvoice/internal/doctree"
)

// Parser extracts the text of the selected pages of a document.
type Parser interface {
	Parse(path string, pages string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can narrate.
var SupportedExtensions = map[string]bool{
	".txt": true,
	".pdf": true,
}

// Options tune parser construction.
type Options struct {
	FallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	default:
		return nil, apperr.Format("unsupported file extension %q: input must be a .pdf or .txt file", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsPaginated reports whether page expressions apply to the file.
func IsPaginated(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// BaseName returns the file name up to its first dot, used for titles and
// output naming.
func BaseName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// CheckInput verifies the input is supported and exists.
func CheckInput(path string) error {
	if !IsSupportedExtension(path) {
		return apperr.Format("unsupported file extension %q: input must be a .pdf or .txt file", filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.NotFound("input file %s", path)
		}
		return err
	}
	return nil
}

func openErr(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperr.NotFound("input file %s", path)
	}
	return err
}
