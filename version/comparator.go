package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Comparator orders version strings for conflict resolution.
type Comparator interface {
	Compare(a, b string) (int, error)
}

// ComparatorFunc adapts a function to the Comparator interface.
type ComparatorFunc func(a, b string) (int, error)

// Compare calls f(a, b).
func (f ComparatorFunc) Compare(a, b string) (int, error) { return f(a, b) }

// Default orders versions with the qualifier-aware rules of this package.
// It accepts any string.
var Default Comparator = ComparatorFunc(func(a, b string) (int, error) {
	return Compare(a, b), nil
})

// Semver orders versions as semantic versions. Versions that do not parse
// produce an error rather than a guessed order.
var Semver Comparator = ComparatorFunc(compareSemver)

func compareSemver(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// ByName returns the comparator registered under name ("default" or
// "semver"). An empty name selects Default.
func ByName(name string) (Comparator, error) {
	switch name {
	case "", "default":
		return Default, nil
	case "semver":
		return Semver, nil
	}
	return nil, fmt.Errorf("unknown version scheme %q", name)
}
