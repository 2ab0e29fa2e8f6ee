// Package classify resolves a normalized utterance to an intent and domain.
//
// Classification is first-match-wins over the pattern catalog: rules are
// tried in catalog order (priority ascending, then load order) and the
// first regex that matches decides the outcome. Later rules are never
// consulted, so rule authors control precedence entirely through priority
// and record ordering.
package classify

import (
	"porter/internal/core/patterns"
)

// UnknownLabel is reported for both intent and domain when no rule matches.
const UnknownLabel = "unknown"

// Result is the outcome of classifying one utterance.
type Result struct {
	Intent string
	Domain string
	RuleID string
	Score  float64
	// Groups holds named capture groups from the winning pattern,
	// keyed by group name. Nil when no rule matched or the winning
	// pattern has no named groups.
	Groups map[string]Span
	// Matched reports whether any rule fired.
	Matched bool
}

// Span is a half-open byte range into the classified text.
type Span struct {
	Start int
	End   int
	Text  string
}

// Unknown is the sentinel result for text no rule matched.
func Unknown() Result {
	return Result{Intent: UnknownLabel, Domain: UnknownLabel, Score: 0}
}

// Classify runs text through the catalog and returns the first hit.
// A miss is a normal outcome, not an error.
func Classify(cat *patterns.Catalog, text string) Result {
	for _, r := range cat.All() {
		loc := r.Re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		return Result{
			Intent:  r.Intent,
			Domain:  r.Domain,
			RuleID:  r.ID,
			Score:   r.Weight,
			Groups:  namedGroups(r, text, loc),
			Matched: true,
		}
	}
	return Unknown()
}

func namedGroups(r patterns.Rule, text string, loc []int) map[string]Span {
	names := r.Re.SubexpNames()
	var groups map[string]Span
	for i, name := range names {
		if i == 0 || name == "" {
			continue
		}
		s, e := loc[2*i], loc[2*i+1]
		if s < 0 {
			continue // optional group that did not participate
		}
		if groups == nil {
			groups = make(map[string]Span, len(names)-1)
		}
		if _, dup := groups[name]; dup {
			continue // first occurrence of a repeated name wins
		}
		groups[name] = Span{Start: s, End: e, Text: text[s:e]}
	}
	return groups
}
