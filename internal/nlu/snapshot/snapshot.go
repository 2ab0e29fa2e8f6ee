// Package snapshot assembles one immutable generation of compiled NLU
// state: the pattern catalog and the gazetteer index, built together so
// they can only ever be published together. A snapshot is never mutated
// after Build returns; reloads build a fresh one off to the side and
// the engine swaps a pointer.
package snapshot

import (
	"context"

	"porter/internal/core/gazetteer"
	"porter/internal/core/patterns"
	perr "porter/internal/platform/errors"
	"porter/internal/source"
)

// Snapshot is one fully-built, read-only generation.
type Snapshot struct {
	catalog *patterns.Catalog
	index   *gazetteer.Index
	gen     uint64
}

// Build fetches records from both sources and compiles them. It fails
// with a LoadError when a gazetteer is tagged with a domain no pattern
// rule establishes, since such a gazetteer could never be scanned under
// its own domain. Nothing is published on failure; the caller keeps
// whatever snapshot it already had.
func Build(ctx context.Context, ps source.PatternSource, gs source.GazetteerSource, gen uint64) (*Snapshot, error) {
	pRecs, err := ps.Patterns(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := patterns.Load(pRecs)
	if err != nil {
		return nil, err
	}

	gRecs, err := gs.Gazetteers(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := gazetteer.Load(gRecs)
	if err != nil {
		return nil, err
	}

	for _, g := range idx.All() {
		if !cat.HasDomain(g.Domain) {
			return nil, perr.Loadf("gazetteer %q: domain %q has no pattern rules", g.ID, g.Domain)
		}
	}

	return &Snapshot{catalog: cat, index: idx, gen: gen}, nil
}

// Catalog returns the compiled pattern catalog.
func (s *Snapshot) Catalog() *patterns.Catalog { return s.catalog }

// Index returns the compiled gazetteer index.
func (s *Snapshot) Index() *gazetteer.Index { return s.index }

// Generation returns the monotonic generation number the engine
// assigned when this snapshot was built.
func (s *Snapshot) Generation() uint64 { return s.gen }
