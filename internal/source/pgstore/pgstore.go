// Package pgstore serves pattern and gazetteer records from Postgres.
//
// The schema keeps insertion order as an explicit position column
// rather than trusting physical row order, so reloads see the same
// sequence the authoring pipeline wrote:
//
//	CREATE TABLE nlu_patterns (
//	    id       TEXT PRIMARY KEY,
//	    domain   TEXT NOT NULL,
//	    intent   TEXT NOT NULL,
//	    priority INT NOT NULL DEFAULT 0,
//	    weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    patterns JSONB NOT NULL,
//	    position INT NOT NULL
//	);
//
//	CREATE TABLE nlu_gazetteers (
//	    id       TEXT PRIMARY KEY,
//	    domain   TEXT NOT NULL,
//	    items    JSONB NOT NULL,
//	    position INT NOT NULL
//	);
package pgstore

import (
	"context"
	"encoding/json"

	"porter/internal/core/gazetteer"
	"porter/internal/core/patterns"
	perr "porter/internal/platform/errors"
	"porter/internal/platform/store"
)

const (
	patternsSQL = `
		SELECT id, domain, intent, priority, weight, patterns
		FROM nlu_patterns
		ORDER BY position ASC, id ASC`

	gazetteersSQL = `
		SELECT id, domain, items
		FROM nlu_gazetteers
		ORDER BY position ASC, id ASC`
)

// Source reads records through any RowQuerier (pool or open tx).
type Source struct {
	db store.RowQuerier
}

// New returns a Source backed by db.
func New(db store.RowQuerier) *Source { return &Source{db: db} }

func (s *Source) Patterns(ctx context.Context) ([]patterns.Record, error) {
	recs, err := store.Many(ctx, s.db, scanPattern, patternsSQL)
	if err != nil {
		// a malformed JSONB column is a load problem, not a database one
		if perr.IsLoad(err) {
			return nil, err
		}
		return nil, perr.FromPostgres(err, "load pattern records")
	}
	return recs, nil
}

func (s *Source) Gazetteers(ctx context.Context) ([]gazetteer.Record, error) {
	recs, err := store.Many(ctx, s.db, scanGazetteer, gazetteersSQL)
	if err != nil {
		if perr.IsLoad(err) {
			return nil, err
		}
		return nil, perr.FromPostgres(err, "load gazetteer records")
	}
	return recs, nil
}

func scanPattern(r store.Row) (patterns.Record, error) {
	var (
		rec  patterns.Record
		defs []byte
	)
	if err := r.Scan(&rec.ID, &rec.Domain, &rec.Intent, &rec.Priority, &rec.Weight, &defs); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(defs, &rec.Patterns); err != nil {
		return rec, perr.Wrapf(err, perr.ErrorCodeLoad, "pattern record %q: decode patterns column", rec.ID)
	}
	return rec, nil
}

func scanGazetteer(r store.Row) (gazetteer.Record, error) {
	var (
		rec   gazetteer.Record
		items []byte
	)
	if err := r.Scan(&rec.ID, &rec.Domain, &items); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return rec, perr.Wrapf(err, perr.ErrorCodeLoad, "gazetteer record %q: decode items column", rec.ID)
	}
	return rec, nil
}
