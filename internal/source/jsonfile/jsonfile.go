// Package jsonfile loads pattern and gazetteer records from JSON files
// on an fs.FS. Each file holds a JSON array of records; array position
// is the insertion order.
package jsonfile

import (
	"context"
	"encoding/json"
	"io/fs"

	"porter/internal/core/gazetteer"
	"porter/internal/core/patterns"
	perr "porter/internal/platform/errors"
)

// Source reads records from two JSON documents on a filesystem.
type Source struct {
	fsys          fs.FS
	patternsPath  string
	gazetteerPath string
}

// New returns a Source reading patternsPath and gazetteersPath from fsys.
func New(fsys fs.FS, patternsPath, gazetteersPath string) *Source {
	return &Source{fsys: fsys, patternsPath: patternsPath, gazetteerPath: gazetteersPath}
}

func (s *Source) Patterns(_ context.Context) ([]patterns.Record, error) {
	var recs []patterns.Record
	if err := s.readArray(s.patternsPath, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Source) Gazetteers(_ context.Context) ([]gazetteer.Record, error) {
	var recs []gazetteer.Record
	if err := s.readArray(s.gazetteerPath, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Source) readArray(path string, out any) error {
	raw, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeLoad, "read records %q", path)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeLoad, "decode records %q", path)
	}
	return nil
}
