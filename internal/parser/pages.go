package parser

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docvoice/internal/apperr"
)

// AllPages selects every page of a document.
const AllPages = "all"

// SelectPages resolves a page expression into zero-based page indices.
//
// Accepted forms are "all", a comma list "1,4,2", a range "3-7" and a single
// page "5". Page numbers are 1-based in the expression. Indices are not
// checked against pageCount except for "all"; callers validate bounds when
// they look pages up.
func SelectPages(expr string, pageCount int) ([]int, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case expr == AllPages:
		pages := make([]int, 0, max(pageCount, 0))
		for i := range max(pageCount, 0) {
			pages = append(pages, i)
		}
		return pages, nil

	case strings.Contains(expr, ","):
		var pages []int
		for _, tok := range strings.Split(expr, ",") {
			n, err := pageNumber(tok, expr)
			if err != nil {
				return nil, err
			}
			pages = append(pages, n-1)
		}
		return pages, nil

	case strings.Contains(expr, "-"):
		if strings.Count(expr, "-") > 1 {
			return nil, apperr.Format("page range %q: use either 1,2,3 or 1-3", expr)
		}
		lo, hi, _ := strings.Cut(expr, "-")
		return pageSpan(lo, hi, expr)

	default:
		return pageSpan(expr, expr, expr)
	}
}

// pageSpan returns the indices of pages first through last inclusive.
func pageSpan(first, last, expr string) ([]int, error) {
	a, err := pageNumber(first, expr)
	if err != nil {
		return nil, err
	}
	b, err := pageNumber(last, expr)
	if err != nil {
		return nil, err
	}
	if b < a {
		return nil, apperr.Format("page range %q: end before start", expr)
	}
	pages := make([]int, 0, b-a+1)
	for i := a - 1; i < b; i++ {
		pages = append(pages, i)
	}
	return pages, nil
}

func pageNumber(tok, expr string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return 0, apperr.Format("page range %q: use either 1,2,3 or 1-3", expr)
	}
	return n, nil
}
