package search

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformedRange is returned when a count range expression cannot be
// parsed. Callers treat it as "no constraint" rather than failing the
// whole search.
var ErrMalformedRange = errors.New("malformed range expression")

// CountRange is a numeric interval over a count-like field. Nil bounds are
// unbounded. Inclusivity is tracked per bound so "<100" and "0-100" compile
// to different engine queries.
type CountRange struct {
	Min          *int
	Max          *int
	MinInclusive bool
	MaxInclusive bool
}

// ParseCountRange parses a human-entered comparison expression for a
// count-like field. Recognized forms:
//
//	"<N"  upper-bounded, exclusive: [0, N)
//	">N"  lower-bounded, exclusive: (N, inf)
//	"A-B" inclusive range [A, B]
//	"N"   exact match [N, N]
//
// Whitespace and comma thousands separators are stripped before parsing,
// so "> 1,000" and ">1000" are equivalent.
func ParseCountRange(expr string) (*CountRange, error) {
	s := stripSeparators(expr)
	if s == "" {
		return nil, ErrMalformedRange
	}

	switch {
	case strings.HasPrefix(s, "<"):
		n, err := parseCount(s[1:])
		if err != nil {
			return nil, err
		}
		zero := 0
		return &CountRange{Min: &zero, MinInclusive: true, Max: &n}, nil

	case strings.HasPrefix(s, ">"):
		n, err := parseCount(s[1:])
		if err != nil {
			return nil, err
		}
		return &CountRange{Min: &n}, nil

	case strings.Contains(s, "-"):
		lo, hi, ok := strings.Cut(s, "-")
		if !ok {
			return nil, ErrMalformedRange
		}
		a, err := parseCount(lo)
		if err != nil {
			return nil, err
		}
		b, err := parseCount(hi)
		if err != nil {
			return nil, err
		}
		return &CountRange{Min: &a, Max: &b, MinInclusive: true, MaxInclusive: true}, nil

	default:
		n, err := parseCount(s)
		if err != nil {
			return nil, err
		}
		return &CountRange{Min: &n, Max: &n, MinInclusive: true, MaxInclusive: true}, nil
	}
}

// stripSeparators removes whitespace and comma thousands separators.
func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, s)
}

// parseCount converts a separator-stripped string to a non-negative count.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, ErrMalformedRange
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrMalformedRange
	}
	return n, nil
}
