package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docvoice/internal/apperr"
	"github.com/dgallion1/docvoice/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled and available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(path string, pages string) (*doctree.DocTree, error) {
	tree := &doctree.DocTree{Title: BaseName(path)}

	nodes, err := extractPDFPages(path, pages)
	if err != nil && p.FallbackPdftotext && isOpenFailure(err) {
		nodes, err = extractPdftotextPages(path, pages)
	}
	if err != nil {
		return nil, err
	}
	tree.Children = nodes
	return tree, nil
}

// openError marks failures of the PDF library to read the document at all,
// as opposed to selection errors which a fallback cannot fix.
type openError struct{ err error }

func (e *openError) Error() string { return e.err.Error() }
func (e *openError) Unwrap() error { return e.err }

func isOpenFailure(err error) bool {
	var oe *openError
	return errors.As(err, &oe)
}

func extractPDFPages(path, pages string) ([]*doctree.DocNode, error) {
	f, reader, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	indices, err := SelectPages(pages, numPages)
	if err != nil {
		return nil, err
	}

	nodes := make([]*doctree.DocNode, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= numPages {
			return nil, apperr.Range("page %d of %s: document has %d pages", idx+1, path, numPages)
		}
		page := reader.Page(idx + 1)
		var text string
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("extract page %d of %s: %w", idx+1, path, err)
			}
		}
		nodes = append(nodes, pageNode(idx, text))
	}
	return nodes, nil
}

// openPDF wraps pdflib.Open, which panics on some malformed files.
func openPDF(path string) (f *os.File, r *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f, r, err = nil, nil, &openError{fmt.Errorf("open pdf %s: %v", path, rec)}
		}
	}()
	f, r, err = pdflib.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, apperr.NotFound("input file %s", path)
		}
		return nil, nil, &openError{fmt.Errorf("open pdf %s: %w", path, err)}
	}
	return f, r, nil
}

func extractPdftotextPages(path, pages string) ([]*doctree.DocNode, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext %s: %w", path, err)
	}

	all := splitPages(string(out))
	indices, err := SelectPages(pages, len(all))
	if err != nil {
		return nil, err
	}
	nodes := make([]*doctree.DocNode, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(all) {
			return nil, apperr.Range("page %d of %s: document has %d pages", idx+1, path, len(all))
		}
		nodes = append(nodes, pageNode(idx, all[idx]))
	}
	return nodes, nil
}

func pageNode(idx int, text string) *doctree.DocNode {
	return &doctree.DocNode{
		Title: fmt.Sprintf("Page %d", idx+1),
		Text:  text,
		Page:  idx + 1,
	}
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates
// every page with one, so the trailing empty element is dropped.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
