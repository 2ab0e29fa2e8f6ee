// Package extract pulls slot values out of an utterance after
// classification. Two sources feed the slot set: named capture groups
// from the winning pattern, then gazetteer alias hits over the same
// text. Capture groups claim their byte ranges first; a gazetteer hit
// that overlaps an already-claimed range is dropped, so a rule author
// can always override the dictionaries with an explicit group.
package extract

import (
	"sort"

	"porter/internal/core/classify"
	"porter/internal/core/gazetteer"
)

// Slot is one extracted value. Surface is the text as it appeared in
// the utterance; Canonical is the gazetteer's preferred form when one
// is known, otherwise it equals Surface.
type Slot struct {
	Name      string
	Surface   string
	Canonical string
	Start     int
	End       int
	// Resolved reports whether Canonical came from a gazetteer entry.
	Resolved bool
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// Extract returns the slots for a classified utterance, in claim order.
// When the classification missed, every gazetteer is scanned so callers
// still see entity hits on otherwise-unrecognized input.
func Extract(idx *gazetteer.Index, res classify.Result, text string) []Slot {
	var slots []Slot
	var claimed []span

	claim := func(s Slot) {
		slots = append(slots, s)
		claimed = append(claimed, span{s.Start, s.End})
	}
	free := func(s span) bool {
		for _, c := range claimed {
			if s.overlaps(c) {
				return false
			}
		}
		return true
	}

	// capture groups first, in text order
	for _, name := range sortedGroupNames(res.Groups) {
		g := res.Groups[name]
		s := Slot{Name: name, Surface: g.Text, Canonical: g.Text, Start: g.Start, End: g.End}
		if e, ok := idx.Canonicalize(res.Domain, g.Text); ok {
			s.Canonical = e.Canonical
			s.Resolved = true
		}
		if free(span{s.Start, s.End}) {
			claim(s)
		}
	}

	var hits []gazetteer.Match
	if res.Matched {
		hits = idx.Scan(res.Domain, text)
	} else {
		hits = idx.ScanAll(text)
	}
	for _, m := range hits {
		if !free(span{m.Start, m.End}) {
			continue
		}
		claim(Slot{
			Name:      m.Entry.Domain,
			Surface:   text[m.Start:m.End],
			Canonical: m.Entry.Canonical,
			Start:     m.Start,
			End:       m.End,
			Resolved:  true,
		})
	}
	return slots
}

func sortedGroupNames(groups map[string]classify.Span) []string {
	if len(groups) == 0 {
		return nil
	}
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		gi, gj := groups[names[i]], groups[names[j]]
		if gi.Start != gj.Start {
			return gi.Start < gj.Start
		}
		return names[i] < names[j]
	})
	return names
}
