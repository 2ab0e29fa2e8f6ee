// Package porter is a rule-based natural language understanding engine.
// It classifies free-form text into a (domain, intent) pair with ordered
// regex rules, extracts entity slots through gazetteer alias lookup,
// scores confidence, and renders a deterministic retrieval query for the
// downstream answer stage.
//
// The engine is synchronous and stateless per request. Compiled rules
// and gazetteers live in an immutable snapshot; Reload builds a new
// snapshot off to the side and publishes it atomically, so concurrent
// Process calls always see one consistent generation.
package porter

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"

	"porter/internal/core/classify"
	"porter/internal/core/extract"
	"porter/internal/core/normalize"
	"porter/internal/core/query"
	"porter/internal/core/score"
	"porter/internal/nlu/snapshot"
	perr "porter/internal/platform/errors"
	"porter/internal/platform/logger"
	"porter/internal/source"
)

// Re-exported record types so callers can assemble sources without
// importing internal packages.
type (
	// Slot is one extracted entity.
	Slot = extract.Slot

	// Confidence is the scored confidence block.
	Confidence = score.Confidence
)

// UnknownLabel is the reserved domain/intent value reported when no
// rule matches.
const UnknownLabel = classify.UnknownLabel

// UnderstandingRecord is the engine's output, handed one-way to the
// response-generation stage. Immutable after Process returns it.
type UnderstandingRecord struct {
	RawText    string     `json:"raw_text"`
	CleanText  string     `json:"clean_text"`
	Domain     string     `json:"domain"`
	Intent     string     `json:"intent"`
	RuleID     string     `json:"rule_id,omitempty"`
	Slots      []Slot     `json:"slots"`
	Confidence Confidence `json:"confidence"`
	// RetrievalQuery is the canonical query string for the retrieval
	// collaborator; byte-identical for identical inputs.
	RetrievalQuery string `json:"retrieval_query"`
	// Generation identifies the snapshot this record was produced
	// against.
	Generation uint64 `json:"-"`
}

// Config assembles an Engine.
type Config struct {
	// Source supplies pattern and gazetteer records. Required.
	Source source.Source

	// Normalize tunes the text normalizer. Zero value uses defaults.
	Normalize normalize.Options

	// Log is the engine logger. Nil falls back to the named default.
	Log *logger.Logger
}

// Engine is the processor pipeline. Safe for concurrent use.
type Engine struct {
	src  source.Source
	norm *normalize.Normalizer
	log  logger.Logger

	snap atomic.Pointer[snapshot.Snapshot]
	gen  atomic.Uint64

	// closer releases the backing store when the engine owns it
	closer func(context.Context) error
}

// New builds an Engine and loads the first snapshot. A load failure
// here is fatal: there is no previous state to fall back to.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Source == nil {
		return nil, perr.InvalidArgf("porter: Config.Source is required")
	}
	log := cfg.Log
	if log == nil {
		log = logger.Named("porter")
	}

	e := &Engine{
		src:  cfg.Source,
		norm: normalize.NewWithOptions(cfg.Normalize),
		log:  *log,
	}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload fetches records, compiles a fresh snapshot, and publishes it
// in one atomic step. On failure the published snapshot is untouched
// and in-flight Process calls keep the generation they pinned.
func (e *Engine) Reload(ctx context.Context) error {
	gen := e.gen.Add(1)
	snap, err := snapshot.Build(ctx, e.src, e.src, gen)
	if err != nil {
		e.log.Error().Err(err).Uint64("generation", gen).Msg("snapshot build failed, keeping previous")
		return err
	}
	e.snap.Store(snap)
	e.log.Info().
		Uint64("generation", gen).
		Int("rules", snap.Catalog().Len()).
		Int("gazetteers", snap.Index().Len()).
		Msg("snapshot published")
	return nil
}

// Close releases resources the engine owns, such as a database pool
// opened by NewFromEnv. Engines built over a caller-owned source have
// nothing to release.
func (e *Engine) Close(ctx context.Context) error {
	if e.closer == nil {
		return nil
	}
	return e.closer(ctx)
}

// Generation reports the currently published snapshot generation.
func (e *Engine) Generation() uint64 {
	return e.snap.Load().Generation()
}

// Domains lists the domains the published snapshot can classify into.
func (e *Engine) Domains() []string {
	return e.snap.Load().Catalog().Domains()
}

// Process runs raw text through the full pipeline: normalize, classify,
// extract, score, build query. It fails with a ValidationError on empty
// or non-text input; an utterance no rule matches is a normal result
// with the unknown domain/intent, not an error.
func (e *Engine) Process(ctx context.Context, raw string) (UnderstandingRecord, error) {
	if err := validateInput(raw); err != nil {
		return UnderstandingRecord{}, err
	}

	reqID := uuid.NewString()
	ctx = logger.WithRequest(ctx, reqID)
	log := logger.C(ctx)

	// pin one generation for the whole request
	snap := e.snap.Load()

	clean := e.norm.Normalize(raw)
	res := classify.Classify(snap.Catalog(), clean)
	slots := extract.Extract(snap.Index(), res, clean)
	conf := score.Score(res, slots)

	rec := UnderstandingRecord{
		RawText:        raw,
		CleanText:      clean,
		Domain:         res.Domain,
		Intent:         res.Intent,
		RuleID:         res.RuleID,
		Slots:          slots,
		Confidence:     conf,
		RetrievalQuery: query.Build(res.Domain, res.Intent, slots),
		Generation:     snap.Generation(),
	}

	log.Debug().
		Str("domain", rec.Domain).
		Str("intent", rec.Intent).
		Int("slots", len(rec.Slots)).
		Float64("overall_confidence", conf.Overall).
		Uint64("generation", rec.Generation).
		Msg("processed utterance")
	return rec, nil
}

func validateInput(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return perr.Validationf("input text is empty")
	}
	if !utf8.ValidString(raw) {
		return perr.Validationf("input text is not valid UTF-8")
	}
	return nil
}
