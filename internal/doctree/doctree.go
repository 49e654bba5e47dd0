package doctree

import "strings"

// DocTree is the root of an extracted document.
type DocTree struct {
	Title    string     // Document title (input base name)
	Children []*DocNode // Selected pages, in selection order
}

// DocNode holds the text of one page (or the whole file for plain text).
type DocNode struct {
	Title string // "Page N" for paginated sources
	Text  string
	Page  int // 1-based source page (0 if N/A)
}

// Text concatenates the node texts in order, one line break between nodes.
func (t *DocTree) Text() string {
	texts := make([]string, 0, len(t.Children))
	for _, n := range t.Children {
		texts = append(texts, n.Text)
	}
	return strings.Join(texts, "\n")
}

// Pages returns the 1-based page numbers of the nodes, in order.
func (t *DocTree) Pages() []int {
	pages := make([]int, 0, len(t.Children))
	for _, n := range t.Children {
		pages = append(pages, n.Page)
	}
	return pages
}

// Chunk is one synthesis unit of normalized text.
type Chunk struct {
	Text  string // Words joined by single spaces
	Index int    // Sequence number within the run
	Words int    // Source words consumed by this chunk
}
