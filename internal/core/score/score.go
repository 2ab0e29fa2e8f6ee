// Package score derives the confidence block for a processed utterance.
package score

import (
	"porter/internal/core/classify"
	"porter/internal/core/extract"
)

// Confidence summarizes how much to trust a single understanding.
// Overall is min(Intent, Domain): a plausible intent in an unrecognized
// domain must not report high confidence, and vice versa.
type Confidence struct {
	Intent       float64 `json:"intent_confidence"`
	Domain       float64 `json:"domain_confidence"`
	SlotCoverage float64 `json:"slot_coverage"`
	SlotCount    int     `json:"slot_count"`
	Overall      float64 `json:"overall_confidence"`
}

// Score computes the confidence block for one classification and its slots.
func Score(res classify.Result, slots []extract.Slot) Confidence {
	c := Confidence{
		Intent:       clamp01(res.Score),
		SlotCoverage: coverage(slots),
		SlotCount:    len(slots),
	}
	if res.Domain != classify.UnknownLabel {
		c.Domain = 1.0
	}
	c.Overall = c.Intent
	if c.Domain < c.Overall {
		c.Overall = c.Domain
	}
	return c
}

// coverage is the fraction of slots backed by a gazetteer entry.
// No slots at all is full coverage: absent entities are not evidence
// of a bad parse.
func coverage(slots []extract.Slot) float64 {
	if len(slots) == 0 {
		return 1.0
	}
	resolved := 0
	for _, s := range slots {
		if s.Resolved {
			resolved++
		}
	}
	return float64(resolved) / float64(len(slots))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
