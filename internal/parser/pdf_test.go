package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docvoice/internal/apperr"
)

// writeTestPDF builds a minimal PDF with one line of Helvetica text per page.
func writeTestPDF(t *testing.T, dir string, pageTexts ...string) string {
	t.Helper()

	n := len(pageTexts)
	fontObj := 3 + 2*n
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, text := range pageTexts {
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i)
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
		objects = append(objects, page, stream)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPDFParser_AllPages(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "Alpha page", "Beta page", "Gamma page")

	tree, err := (&PDFParser{}).Parse(path, AllPages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", tree.Title)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(tree.Children))
	}
	for i, want := range []string{"Alpha", "Beta", "Gamma"} {
		node := tree.Children[i]
		if node.Page != i+1 {
			t.Errorf("child[%d]: expected page %d, got %d", i, i+1, node.Page)
		}
		if !strings.Contains(node.Text, want) {
			t.Errorf("child[%d]: expected text containing %q, got %q", i, want, node.Text)
		}
	}
}

func TestPDFParser_SelectionOrder(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "Alpha page", "Beta page", "Gamma page")

	tree, err := (&PDFParser{}).Parse(path, "3,1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(tree.Children))
	}
	text := tree.Text()
	if strings.Index(text, "Gamma") > strings.Index(text, "Alpha") {
		t.Errorf("expected page 3 text before page 1 text, got %q", text)
	}
	if strings.Contains(text, "Beta") {
		t.Errorf("unselected page leaked into text: %q", text)
	}
}

func TestPDFParser_PageOutOfRange(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "Only page")

	for _, expr := range []string{"2", "1-3", "0", "1,5"} {
		_, err := (&PDFParser{}).Parse(path, expr)
		if !errors.Is(err, apperr.ErrRange) {
			t.Errorf("%q: expected range error, got %v", expr, err)
		}
	}
}

func TestPDFParser_BadExpression(t *testing.T) {
	path := writeTestPDF(t, t.TempDir(), "Only page")

	_, err := (&PDFParser{}).Parse(path, "1-2-3")
	if !errors.Is(err, apperr.ErrFormat) {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestPDFParser_MissingFile(t *testing.T) {
	_, err := (&PDFParser{}).Parse(filepath.Join(t.TempDir(), "missing.pdf"), AllPages)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestPDFParser_CorruptFileWithoutFallback(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", "this is not a pdf")

	_, err := (&PDFParser{}).Parse(path, AllPages)
	if err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	if !isOpenFailure(err) {
		t.Errorf("expected open failure, got %v", err)
	}
}

func TestSplitPages(t *testing.T) {
	pages := splitPages("one\ftwo\fthree\f")
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %q", len(pages), pages)
	}
	if pages[2] != "three" {
		t.Errorf("expected %q, got %q", "three", pages[2])
	}
}
