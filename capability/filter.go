package capability

// MatchResult classifies how a candidate's capabilities relate to a request.
type MatchResult int

const (
	// NoMatch means the candidate lacks a requested capability.
	NoMatch MatchResult = iota
	// MatchesAll means the candidate provides everything requested and more.
	MatchesAll
	// ExactMatch means the candidate provides exactly what was requested.
	ExactMatch
)

func (r MatchResult) String() string {
	switch r {
	case ExactMatch:
		return "EXACT_MATCH"
	case MatchesAll:
		return "MATCHES_ALL"
	}
	return "NO_MATCH"
}

// Classify compares the requested capabilities with those a candidate
// provides. implicit is the capability named after the candidate's component.
func Classify(requested []Capability, provided Set, implicit Capability) MatchResult {
	if len(requested) == 0 {
		if provided.IsEmpty() {
			return ExactMatch
		}
		if provided.Contains(implicit) {
			if provided.Len() == 1 {
				return ExactMatch
			}
			return MatchesAll
		}
		return NoMatch
	}

	if provided.IsEmpty() {
		if len(requested) == 1 && requested[0].Matches(implicit) {
			return ExactMatch
		}
		return NoMatch
	}

	wanted := NewSet(requested...)
	for _, c := range wanted.items {
		if !provided.Contains(c) {
			return NoMatch
		}
	}
	if wanted.Len() == provided.Len() {
		return ExactMatch
	}
	return MatchesAll
}

// Filter returns the candidates whose capabilities satisfy the request,
// keeping their order. In strict mode only exact matches pass; lenient mode
// also admits candidates that provide more than requested.
func Filter[T any](requested []Capability, implicit Capability, candidates []T, capsOf func(T) Set, lenient bool) []T {
	var out []T
	for _, c := range candidates {
		switch Classify(requested, capsOf(c), implicit) {
		case ExactMatch:
			out = append(out, c)
		case MatchesAll:
			if lenient {
				out = append(out, c)
			}
		case NoMatch:
		}
	}
	return out
}
