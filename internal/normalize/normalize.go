// Package normalize cleans extracted document text before chunking.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

	// citations matches "[12]" and ranges such as "[12]–[14]" joined by a
	// hyphen, en dash or em dash.
	citations = regexp.MustCompile(`\[\d*\][-\x{2013}\x{2014}]\[\d*\]|\[\d*\]`)

	// hyphenBreaks matches a hyphen left at a line end once newlines have
	// become spaces.
	hyphenBreaks = regexp.MustCompile(`-\s`)
)

// Normalize flattens newlines into spaces, drops citation markers and joins
// words split by line-break hyphenation. Runs of spaces are left as is.
//
// The hyphenation rule is a heuristic: "well- known" becomes "wellknown" too.
func Normalize(text string) string {
	text = newlines.Replace(text)
	text = citations.ReplaceAllString(text, "")
	return hyphenBreaks.ReplaceAllString(text, "")
}

// Fold applies Unicode compatibility folding (NFKC), which expands PDF
// ligatures and turns a horizontal ellipsis into three periods.
func Fold(text string) string {
	return norm.NFKC.String(text)
}
