package patterns

import (
	"testing"

	perr "porter/internal/platform/errors"
)

func rec(id, domain, intent string, prio int, regexes ...string) Record {
	defs := make([]Definition, 0, len(regexes))
	for _, r := range regexes {
		defs = append(defs, Definition{Regex: r})
	}
	return Record{ID: id, Domain: domain, Intent: intent, Priority: prio, Patterns: defs}
}

func TestLoadOrdering(t *testing.T) {
	c, err := Load([]Record{
		rec("late", "library", "ask_library", 20, `\brenew\b`),
		rec("early", "location", "ask_directions", 10, `how do i get to`, `directions to`),
		rec("tie", "location", "ask_location", 10, `where is`),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("rule count = %d, want 4", c.Len())
	}

	all := c.All()
	// priority 10 rules first, in insertion order; priority 20 last
	wantIDs := []string{"early", "early", "tie", "late"}
	for i, r := range all {
		if r.ID != wantIDs[i] {
			t.Fatalf("rule %d = %q, want %q (order %v)", i, r.ID, wantIDs[i], all)
		}
	}

	// per-domain view keeps the same relative order
	loc := c.ForDomain("location")
	if len(loc) != 3 || loc[0].ID != "early" || loc[2].ID != "tie" {
		t.Fatalf("ForDomain(location) = %v", loc)
	}
	if !c.HasDomain("library") || c.HasDomain("nope") {
		t.Fatalf("HasDomain misreports")
	}
	if d := c.Domains(); len(d) != 2 || d[0] != "library" || d[1] != "location" {
		t.Fatalf("Domains() = %v", d)
	}
}

func TestLoadOrderingStableAcrossReloads(t *testing.T) {
	in := []Record{
		rec("a", "x", "i1", 5, `one`),
		rec("b", "x", "i2", 5, `two`),
		rec("c", "y", "i3", 1, `three`),
	}
	c1, err := Load(in)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c2, err := Load(in)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	for i := range c1.All() {
		if c1.All()[i].ID != c2.All()[i].ID {
			t.Fatalf("order differs across reloads at %d", i)
		}
	}
}

func TestLoadCompileFailure(t *testing.T) {
	_, err := Load([]Record{rec("broken", "x", "i", 0, `([unclosed`)})
	if !perr.IsLoad(err) {
		t.Fatalf("want LoadError, got %v", err)
	}
	e, _ := perr.As(err)
	if e.Field() != "broken" {
		t.Fatalf("LoadError should name the rule, field = %q", e.Field())
	}
}

func TestLoadRejectsMalformedRecords(t *testing.T) {
	cases := []Record{
		{ID: "", Domain: "d", Intent: "i", Patterns: []Definition{{Regex: "x"}}},
		{ID: "r", Domain: "", Intent: "i", Patterns: []Definition{{Regex: "x"}}},
		{ID: "r", Domain: "d", Intent: "", Patterns: []Definition{{Regex: "x"}}},
		{ID: "r", Domain: "d", Intent: "i"}, // no patterns
		{ID: "r", Domain: "d", Intent: "i", Patterns: []Definition{{Regex: ""}}},
	}
	for i, c := range cases {
		if _, err := Load([]Record{c}); !perr.IsLoad(err) {
			t.Fatalf("case %d: want LoadError, got %v", i, err)
		}
	}
}

func TestFlags(t *testing.T) {
	c, err := Load([]Record{{
		ID: "flagged", Domain: "d", Intent: "i",
		Patterns: []Definition{{Regex: `WHERE IS`, Flags: []string{"IGNORECASE"}}},
	}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.All()[0].Re.MatchString("where is the library") {
		t.Fatalf("IGNORECASE flag not applied")
	}

	if _, err := Load([]Record{{
		ID: "badflag", Domain: "d", Intent: "i",
		Patterns: []Definition{{Regex: `x`, Flags: []string{"UNICODE"}}},
	}}); !perr.IsLoad(err) {
		t.Fatalf("unknown flag must be a LoadError, got %v", err)
	}
}

func TestDefaultsApplied(t *testing.T) {
	c, err := Load([]Record{rec("r", "d", "i", 0, `x`)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := c.All()[0]
	if r.Priority != defaultPriority {
		t.Fatalf("default priority = %d", r.Priority)
	}
	if r.Weight != 1.0 {
		t.Fatalf("default weight = %v", r.Weight)
	}
}
