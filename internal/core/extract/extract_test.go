package extract

import (
	"testing"

	"porter/internal/core/classify"
	"porter/internal/core/gazetteer"
	"porter/internal/core/patterns"
)

func testIndex(t *testing.T) *gazetteer.Index {
	t.Helper()
	idx, err := gazetteer.Load([]gazetteer.Record{
		{
			ID:     "campus",
			Domain: "location",
			Items: []gazetteer.Item{
				{Canonical: "library", Aliases: []string{"the library"}},
				{Canonical: "haslegrave building", Aliases: []string{"haslegrave"}},
			},
		},
		{
			ID:     "courses",
			Domain: "course_info",
			Items:  []gazetteer.Item{{Canonical: "computer science", Aliases: []string{"cs"}}},
		},
	})
	if err != nil {
		t.Fatalf("gazetteer.Load: %v", err)
	}
	return idx
}

func classified(t *testing.T, regex, domain, intent, text string) classify.Result {
	t.Helper()
	cat, err := patterns.Load([]patterns.Record{{
		ID: "r1", Domain: domain, Intent: intent,
		Patterns: []patterns.Definition{{Regex: regex}},
	}})
	if err != nil {
		t.Fatalf("patterns.Load: %v", err)
	}
	res := classify.Classify(cat, text)
	if !res.Matched {
		t.Fatalf("rule %q did not match %q", regex, text)
	}
	return res
}

func TestCaptureGroupBecomesSlot(t *testing.T) {
	idx := testIndex(t)
	text := "where is the library"
	res := classified(t, `where is the (?P<place>.+)`, "location", "ask_directions", text)

	slots := Extract(idx, res, text)
	if len(slots) != 1 {
		t.Fatalf("slots = %+v", slots)
	}
	s := slots[0]
	if s.Name != "place" || s.Surface != "library" || s.Canonical != "library" || !s.Resolved {
		t.Fatalf("slot = %+v", s)
	}
	if s.Start != 13 || s.End != 20 {
		t.Fatalf("span = [%d,%d)", s.Start, s.End)
	}
}

func TestCaptureGroupWinsOverGazetteerOverlap(t *testing.T) {
	idx := testIndex(t)
	text := "directions to the library please"
	res := classified(t, `directions to (?P<dest>the \w+)`, "location", "ask_directions", text)

	slots := Extract(idx, res, text)
	if len(slots) != 1 {
		t.Fatalf("overlapping gazetteer hit not suppressed: %+v", slots)
	}
	if slots[0].Name != "dest" || slots[0].Canonical != "library" {
		t.Fatalf("slot = %+v", slots[0])
	}
}

func TestGazetteerSlotNamedByDomain(t *testing.T) {
	idx := testIndex(t)
	text := "how do i get to haslegrave"
	res := classified(t, `how do i get to`, "location", "ask_directions", text)

	slots := Extract(idx, res, text)
	if len(slots) != 1 {
		t.Fatalf("slots = %+v", slots)
	}
	s := slots[0]
	if s.Name != "location" || s.Surface != "haslegrave" || s.Canonical != "haslegrave building" {
		t.Fatalf("slot = %+v", s)
	}
	if !s.Resolved {
		t.Fatalf("gazetteer slot must count as resolved")
	}
}

func TestGazetteerScanScopedToDomain(t *testing.T) {
	idx := testIndex(t)
	text := "tell me about computer science"
	res := classified(t, `tell me about`, "location", "ask_directions", text)

	// the only entity present lives under course_info, which is out of scope
	if slots := Extract(idx, res, text); len(slots) != 0 {
		t.Fatalf("cross-domain hit leaked: %+v", slots)
	}
}

func TestUnknownDomainFallsBackToAllGazetteers(t *testing.T) {
	idx := testIndex(t)
	text := "cs near the library maybe"

	slots := Extract(idx, classify.Unknown(), text)
	if len(slots) != 2 {
		t.Fatalf("slots = %+v", slots)
	}
	if slots[0].Name != "course_info" || slots[0].Canonical != "computer science" {
		t.Fatalf("slot 0 = %+v", slots[0])
	}
	if slots[1].Name != "location" || slots[1].Canonical != "library" || slots[1].Surface != "the library" {
		t.Fatalf("slot 1 = %+v", slots[1])
	}
}

func TestNoEntitiesNoSlots(t *testing.T) {
	idx := testIndex(t)
	if slots := Extract(idx, classify.Unknown(), "asdkj qweoiu"); len(slots) != 0 {
		t.Fatalf("slots = %+v", slots)
	}
}
