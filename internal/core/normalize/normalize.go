// Package normalize produces clean, matchable text from raw questions
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKC normalization
// 3 Case folding
// 4 Remove zero-width and combining marks
// 5 Width fold fullwidth to ASCII
// 6 Strip or space out configured punctuation
// 7 Collapse whitespace to single spaces and trim
//
// The pipeline is deterministic and idempotent: running it twice yields the
// same string as running it once
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// DefaultPunctuation is the set stripped when Options leaves Punctuation empty.
// These carry no weight for rule matching; meaningful marks like the hyphen
// and apostrophe stay untouched ("computer-science", "king's")
const DefaultPunctuation = "?!.,;:\"()[]{}"

// Options tunes the punctuation stage
type Options struct {
	// Punctuation is the set of runes removed from the text; empty means DefaultPunctuation
	Punctuation string
	// Delete removes punctuation outright instead of replacing with a space.
	// Replacement is the default so "foo?bar" cannot glue into "foobar"
	Delete bool
}

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct {
	punct map[rune]struct{}
	del   bool
}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// New constructs a Normalizer with default options
func New() *Normalizer { return NewWithOptions(Options{}) }

// NewWithOptions constructs a Normalizer with a custom punctuation policy
func NewWithOptions(opt Options) *Normalizer {
	set := opt.Punctuation
	if set == "" {
		set = DefaultPunctuation
	}
	punct := make(map[rune]struct{}, len(set))
	for _, r := range set {
		punct[r] = struct{}{}
	}
	return &Normalizer{punct: punct, del: opt.Delete}
}

// Normalize returns the normalized form of s following the pipeline described above
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	// 1 repair UTF-8 drop invalid bytes
	s = strings.ToValidUTF8(s, "")

	// 2-5 transform via pooled chain then reset and return it
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// 6 punctuation policy
	ns = n.foldPunct(ns)

	// 7 collapse whitespace and trim
	ns = collapseSpaces(ns)

	return ns
}

// foldPunct removes configured punctuation, either deleting it or spacing it out
func (n *Normalizer) foldPunct(s string) string {
	if s == "" || len(n.punct) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, ok := n.punct[r]; ok {
			if !n.del {
				b.WriteRune(' ')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims the edges
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	flush := func() {
		if inWS {
			b.WriteByte(' ')
			inWS = false
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		flush()
		b.WriteRune(r)
	}
	out := b.String()
	return strings.Trim(out, " ")
}
