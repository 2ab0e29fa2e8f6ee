// Package gazetteer loads and indexes canonical-entity vocabularies.
// An Index is immutable once built; refresh means building a new one and
// swapping it in whole
package gazetteer

import (
	"sort"
	"strings"
	"unicode/utf8"

	perr "porter/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

// Record is one persisted gazetteer document
type Record struct {
	ID     string `json:"id" validate:"required"`
	Domain string `json:"domain" validate:"required"`
	Items  []Item `json:"items" validate:"required,min=1,dive"`
}

// Item carries a canonical name and its alias spellings as authored
type Item struct {
	Canonical string   `json:"canonical" validate:"required"`
	Aliases   []string `json:"aliases"`
}

// Entry is one canonical entity inside a loaded gazetteer
type Entry struct {
	Gazetteer string // owning gazetteer id
	Domain    string
	Canonical string
	Aliases   []string // as authored, canonical included
}

// Gazetteer is one loaded vocabulary with its derived alias index
type Gazetteer struct {
	ID     string
	Domain string

	entries []Entry
	aliases map[string]int // lowercased alias -> entry index
	flat    []string       // aliases_flat: lowercased, deduped, sorted
	ac      *acAutomaton   // automaton pattern id i maps to flat[i]
}

// Match is one alias occurrence found in a scan, [Start,End) over the scanned text
type Match struct {
	Start int
	End   int
	Alias string
	Entry *Entry
}

// Index holds every loaded gazetteer in load order
type Index struct {
	gazetteers []*Gazetteer
	byDomain   map[string][]*Gazetteer
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load validates records and builds the Index. The canonical name of every
// item is indexed as an alias of itself. Within one gazetteer an alias
// (case-insensitive) must resolve to exactly one entry; a collision fails the
// load with a ConflictError naming the alias and both entries
func Load(records []Record) (*Index, error) {
	idx := &Index{byDomain: make(map[string][]*Gazetteer, 8)}

	for _, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, perr.WithField(
				perr.Wrapf(err, perr.ErrorCodeLoad, "gazetteer record %q is malformed", rec.ID),
				rec.ID,
			)
		}

		g := &Gazetteer{
			ID:      rec.ID,
			Domain:  rec.Domain,
			aliases: make(map[string]int, len(rec.Items)*4),
		}

		for _, item := range rec.Items {
			entry := Entry{
				Gazetteer: rec.ID,
				Domain:    rec.Domain,
				Canonical: item.Canonical,
			}
			// canonical first, then authored aliases, original order kept
			entry.Aliases = append(entry.Aliases, item.Canonical)
			entry.Aliases = append(entry.Aliases, item.Aliases...)
			g.entries = append(g.entries, entry)
			ei := len(g.entries) - 1

			for _, a := range entry.Aliases {
				key := foldAlias(a)
				if key == "" {
					continue
				}
				if prev, ok := g.aliases[key]; ok {
					if prev != ei {
						return nil, perr.WithField(perr.Conflictf(
							"gazetteer %q: alias %q maps to both %q and %q",
							rec.ID, key, g.entries[prev].Canonical, entry.Canonical,
						), key)
					}
					continue // same entry repeats an alias; collapse silently
				}
				g.aliases[key] = ei
			}
		}

		g.buildDerived()
		idx.gazetteers = append(idx.gazetteers, g)
		idx.byDomain[g.Domain] = append(idx.byDomain[g.Domain], g)
	}

	return idx, nil
}

// buildDerived computes aliases_flat and the scan automaton from the alias index
func (g *Gazetteer) buildDerived() {
	g.flat = make([]string, 0, len(g.aliases))
	for a := range g.aliases {
		g.flat = append(g.flat, a)
	}
	sort.Strings(g.flat)

	g.ac = newAutomaton()
	for i, a := range g.flat {
		g.ac.add([]byte(a), i)
	}
	g.ac.build()
}

// foldAlias lowercases and trims an alias for indexing and lookup
func foldAlias(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Lookup resolves an alias (case-insensitive, O(1) average) against the
// gazetteers of one domain. Gazetteer load order breaks cross-gazetteer ties
func (idx *Index) Lookup(domain, alias string) (*Entry, bool) {
	key := foldAlias(alias)
	for _, g := range idx.byDomain[domain] {
		if ei, ok := g.aliases[key]; ok {
			return &g.entries[ei], true
		}
	}
	return nil, false
}

// Canonicalize trims and lowercases surface text, then performs Lookup
func (idx *Index) Canonicalize(domain, surface string) (*Entry, bool) {
	return idx.Lookup(domain, surface)
}

// Domains returns the sorted set of domains with at least one gazetteer
func (idx *Index) Domains() []string {
	out := make([]string, 0, len(idx.byDomain))
	for d := range idx.byDomain {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ForDomain returns the gazetteers of one domain in load order
func (idx *Index) ForDomain(domain string) []*Gazetteer { return idx.byDomain[domain] }

// All returns every gazetteer in load order
func (idx *Index) All() []*Gazetteer { return idx.gazetteers }

// Len returns the number of loaded gazetteers
func (idx *Index) Len() int { return len(idx.gazetteers) }

// AliasesFlat returns the derived lowercased, deduplicated, sorted union of
// all aliases in this gazetteer. Recomputed at every load, never authored
func (g *Gazetteer) AliasesFlat() []string { return g.flat }

// Entries returns the gazetteer's entries in authored order
func (g *Gazetteer) Entries() []Entry { return g.entries }

// Scan finds every alias occurrence in text whose span sits on word
// boundaries. Matches are reported in automaton order; callers sort
func (g *Gazetteer) Scan(text string) []Match {
	if text == "" || g.ac == nil {
		return nil
	}
	var out []Match
	g.ac.find([]byte(text), func(end, id int) bool {
		alias := g.flat[id]
		start := end - len(alias)
		if !boundaryOK(text, start, end) {
			return true
		}
		ei := g.aliases[alias]
		out = append(out, Match{
			Start: start,
			End:   end,
			Alias: alias,
			Entry: &g.entries[ei],
		})
		return true
	})
	return out
}

// Scan merges matches from the gazetteers of one domain, sorted by
// (start asc, length desc, gazetteer load order asc) so the longest match at
// any starting position comes first
func (idx *Index) Scan(domain, text string) []Match {
	return mergeScans(idx.byDomain[domain], text)
}

// ScanAll scans every gazetteer regardless of domain; used as the best-effort
// fallback when classification found no domain
func (idx *Index) ScanAll(text string) []Match {
	return mergeScans(idx.gazetteers, text)
}

func mergeScans(gs []*Gazetteer, text string) []Match {
	var out []Match
	pos := make(map[*Entry]int) // entry -> gazetteer load position, for tie-breaks
	for gi, g := range gs {
		ms := g.Scan(text)
		for i := range ms {
			pos[ms[i].Entry] = gi
		}
		out = append(out, ms...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		li, lj := out[i].End-out[i].Start, out[j].End-out[j].Start
		if li != lj {
			return li > lj
		}
		return pos[out[i].Entry] < pos[out[j].Entry]
	})
	return out
}

// boundaryOK rejects matches that sit inside a larger word, so an alias
// "paris" does not fire inside "comparison"
func boundaryOK(s string, start, end int) bool {
	var prev, next rune
	if start > 0 {
		prev, _ = utf8.DecodeLastRuneInString(s[:start])
	}
	if end < len(s) {
		next, _ = utf8.DecodeRuneInString(s[end:])
	}
	return !isWord(prev) && !isWord(next)
}

func isWord(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	default:
		return false
	}
}
