// Package pagerange parses the page-selection syntax accepted from users:
// a comma-separated list of 1-indexed page numbers and inclusive ranges,
// e.g. "1,3,5-7".
package pagerange

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes a malformed page-range expression. The Token field
// holds the offending piece of input.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid page range %q: %s (expected numbers separated by commas, e.g. 1,3,5-7)", e.Token, e.Reason)
}

// Parse converts a page-range expression into 0-indexed page numbers.
// Pages outside [0, totalPages) are filtered out silently after a
// successful parse; syntax problems are reported as *ParseError.
// An empty expression selects no pages.
func Parse(input string, totalPages int) ([]int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(input, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			return nil, &ParseError{Token: part, Reason: "empty entry"}
		}

		if strings.Contains(token, "-") {
			bounds := strings.SplitN(token, "-", 2)
			start, err := parsePageNumber(bounds[0])
			if err != nil {
				return nil, &ParseError{Token: token, Reason: err.Error()}
			}
			end, err := parsePageNumber(bounds[1])
			if err != nil {
				return nil, &ParseError{Token: token, Reason: err.Error()}
			}
			if start > end {
				return nil, &ParseError{Token: token, Reason: "range start is after range end"}
			}
			for p := start; p <= end; p++ {
				pages = append(pages, p-1)
			}
			continue
		}

		p, err := parsePageNumber(token)
		if err != nil {
			return nil, &ParseError{Token: token, Reason: err.Error()}
		}
		pages = append(pages, p-1)
	}

	// Out-of-document pages are not an error, they just contribute nothing.
	valid := pages[:0]
	for _, p := range pages {
		if p >= 0 && p < totalPages {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	return valid, nil
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", strings.TrimSpace(s))
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers are 1-indexed, got %d", n)
	}
	return n, nil
}
