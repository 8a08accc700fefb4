package bot

import (
	"strings"

	"github.com/issuebot/internal/tracker"
)

// MatchKind classifies the outcome of resolving a requested workflow action
// against the transitions currently available for an issue.
type MatchKind int

const (
	// NoMatch means no available transition starts with the requested name.
	NoMatch MatchKind = iota
	// Exact means exactly one transition matched; Action carries it.
	Exact
	// Ambiguous means two or more transitions matched; Candidates carries
	// them in their original order.
	Ambiguous
)

// TransitionMatch is the result of MatchAction. On NoMatch, Candidates holds
// the full available set for display; on Ambiguous, only the conflicting
// matches.
type TransitionMatch struct {
	Kind       MatchKind
	Action     tracker.Transition
	Candidates []tracker.Transition
}

// MatchAction resolves a requested action name by case-insensitive prefix
// match against the available transitions. Abbreviations are allowed: "res"
// matches "Resolve Issue". The candidate order is preserved and the input is
// never mutated.
func MatchAction(requested string, candidates []tracker.Transition) TransitionMatch {
	want := strings.ToLower(requested)

	var matches []tracker.Transition
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Name), want) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return TransitionMatch{Kind: NoMatch, Candidates: candidates}
	case 1:
		return TransitionMatch{Kind: Exact, Action: matches[0]}
	default:
		return TransitionMatch{Kind: Ambiguous, Candidates: matches}
	}
}
