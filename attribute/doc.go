// Package attribute models the typed key/value attributes that describe
// build intent on both sides of a dependency edge.
//
// Producers attach an attribute [Set] to every variant they publish, and a
// consumer attaches one to every request. Whether a provided value satisfies
// a requested one, and which of two provided values is preferable, is decided
// by a [Schema]. The zero-rule schema accepts only exact matches and has no
// preferences.
//
// Sets are immutable once built. [Set.Key] returns a canonical string so sets
// can be used as cache keys by value.
package attribute
