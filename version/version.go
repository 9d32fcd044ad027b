// Package version parses and orders module version strings.
//
// A version is split into parts at '.', '-', '_' and '+' separators, and
// additionally wherever digits meet letters ("1.0rc1" has parts 1, 0, rc, 1).
// Parts are compared pairwise:
//   - numeric parts compare numerically
//   - a numeric part is greater than a non-numeric one
//   - non-numeric parts compare by qualifier rank, then lexicographically
//
// Qualifier ranks, lowest first (case-insensitive):
//
//	dev < (any other qualifier) < rc < snapshot < final < ga < release < sp
//
// When one version runs out of parts, the longer one is greater if its next
// part is numeric ("1.0.1" > "1.0") and lower otherwise ("1.0-beta" < "1.0").
package version

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// qualifierRanks gives well-known qualifiers a fixed position relative to
// ordinary ones, which all rank 0.
var qualifierRanks = map[string]int{
	"dev":      -1,
	"rc":       1,
	"snapshot": 2,
	"final":    3,
	"ga":       4,
	"release":  5,
	"sp":       6,
}

// Identifier is a single part of a parsed version.
type Identifier struct {
	IsDigitsOnly bool
	AsNumber     uint64 // Only valid if IsDigitsOnly
	AsString     string
}

// ParseIdentifier creates an Identifier from one version part.
func ParseIdentifier(s string) Identifier {
	if s == "" {
		return Identifier{}
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return Identifier{AsString: s}
		}
	}
	num, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// Too large for uint64; ordered as text.
		return Identifier{AsString: s}
	}
	return Identifier{IsDigitsOnly: true, AsNumber: num, AsString: s}
}

// CompareIdentifiers orders two version parts.
func CompareIdentifiers(a, b Identifier) int {
	if a.AsString == b.AsString {
		return 0
	}
	switch {
	case a.IsDigitsOnly && b.IsDigitsOnly:
		switch {
		case a.AsNumber < b.AsNumber:
			return -1
		case a.AsNumber > b.AsNumber:
			return 1
		}
		return 0
	case a.IsDigitsOnly:
		return 1
	case b.IsDigitsOnly:
		return -1
	}

	rankA, knownA := qualifierRanks[strings.ToLower(a.AsString)]
	rankB, knownB := qualifierRanks[strings.ToLower(b.AsString)]
	if knownA || knownB {
		if rankA != rankB {
			if rankA < rankB {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a.AsString, b.AsString)
}

// ParsedVersion is a version split into comparable parts.
type ParsedVersion struct {
	Parts    []Identifier
	Original string
}

// IsEmpty reports whether the version has no parts.
func (v ParsedVersion) IsEmpty() bool {
	return len(v.Parts) == 0
}

// Parse splits a version string into parts. It never fails; the error
// return reports versions that contain characters outside letters, digits
// and separators, which callers may choose to reject.
func Parse(s string) (ParsedVersion, error) {
	v := ParsedVersion{Original: s}
	var (
		current strings.Builder
		digits  bool
	)
	flush := func() {
		if current.Len() > 0 {
			v.Parts = append(v.Parts, ParseIdentifier(current.String()))
			current.Reset()
		}
	}
	var bad bool
	for _, r := range s {
		switch {
		case r == '.' || r == '-' || r == '_' || r == '+':
			flush()
			continue
		case unicode.IsDigit(r):
			if current.Len() > 0 && !digits {
				flush()
			}
			digits = true
		case unicode.IsLetter(r):
			if current.Len() > 0 && digits {
				flush()
			}
			digits = false
		default:
			bad = true
		}
		current.WriteRune(r)
	}
	flush()

	if bad {
		return v, &ParseError{Version: s, Message: "contains characters other than letters, digits and separators"}
	}
	return v, nil
}

// ParseError represents a version parsing error.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + e.Version + ": " + e.Message
}

// Compare compares two version strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	va, _ := Parse(a)
	vb, _ := Parse(b)
	return CompareParsed(va, vb)
}

// CompareParsed compares two parsed versions.
func CompareParsed(a, b ParsedVersion) int {
	n := min(len(a.Parts), len(b.Parts))
	for i := range n {
		if c := CompareIdentifiers(a.Parts[i], b.Parts[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(a.Parts) > n:
		if a.Parts[n].IsDigitsOnly {
			return 1
		}
		return -1
	case len(b.Parts) > n:
		if b.Parts[n].IsDigitsOnly {
			return -1
		}
		return 1
	}
	return 0
}

// Sort sorts a slice of version strings in ascending order.
func Sort(versions []string) {
	slices.SortStableFunc(versions, Compare)
}

// Max returns the higher of two versions.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
