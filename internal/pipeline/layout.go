package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docvoice/internal/parser"
)

// Layout names every file one run writes.
type Layout struct {
	Dir   string // directory holding intermediates and the final file
	Name  string // stem shared by all file names
	Final string // assembled narration
	IsDir bool   // output named a directory rather than a file
}

// ResolveLayout decides where a run writes. An output whose base name has no
// dot is a directory and files are named after the input; otherwise output is
// the final file and intermediates are named after it.
func ResolveLayout(output, inputName string) Layout {
	output = filepath.Clean(output)
	base := filepath.Base(output)
	if !strings.Contains(base, ".") {
		name := parser.BaseName(inputName)
		return Layout{
			Dir:   output,
			Name:  name,
			Final: filepath.Join(output, name+".wav"),
			IsDir: true,
		}
	}
	return Layout{
		Dir:   filepath.Dir(output),
		Name:  parser.BaseName(base),
		Final: output,
	}
}

// RawPath is the synthesizer output of chunk i.
func (l Layout) RawPath(i int) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s.temp(%d).wav", l.Name, i))
}

// ConvertedPath is the re-voiced audio of chunk i.
func (l Layout) ConvertedPath(i int) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s(%d).wav", l.Name, i))
}

// Prepare creates the output directory of a directory layout.
func (l Layout) Prepare() error {
	if !l.IsDir {
		return nil
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", l.Dir, err)
	}
	return nil
}
