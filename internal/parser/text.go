package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/docvoice/internal/doctree"
)

// TextParser handles plain text files. Plain text has no pages, so the page
// expression is ignored and the whole file becomes one node.
type TextParser struct{}

func (p *TextParser) Parse(path string, _ string) (*doctree.DocTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openErr(path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	tree := &doctree.DocTree{Title: BaseName(path)}
	if len(data) > 0 {
		tree.Children = []*doctree.DocNode{{Text: string(data)}}
	}
	return tree, nil
}
