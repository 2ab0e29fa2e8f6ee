// Package source defines where pattern and gazetteer records come from.
// The engine compiles whatever a source returns; sources own fetching
// and decoding, nothing else. Record order matters: it is the
// insertion-order tie-break the classifier depends on, so sources must
// return records in a stable, documented order.
package source

import (
	"context"

	"porter/internal/core/gazetteer"
	"porter/internal/core/patterns"
)

// PatternSource yields pattern records in load order.
type PatternSource interface {
	Patterns(ctx context.Context) ([]patterns.Record, error)
}

// GazetteerSource yields gazetteer records in load order.
type GazetteerSource interface {
	Gazetteers(ctx context.Context) ([]gazetteer.Record, error)
}

// Source is a combined backend serving both record kinds.
type Source interface {
	PatternSource
	GazetteerSource
}

// Static serves fixed in-memory records. Handy for tests and for
// callers that assemble records themselves.
type Static struct {
	PatternRecords   []patterns.Record
	GazetteerRecords []gazetteer.Record
}

func (s Static) Patterns(context.Context) ([]patterns.Record, error) {
	return s.PatternRecords, nil
}

func (s Static) Gazetteers(context.Context) ([]gazetteer.Record, error) {
	return s.GazetteerRecords, nil
}
