// Package patterns loads and compiles domain/intent pattern rules.
// A catalog is immutable once built; refresh means building a new one
package patterns

import (
	"regexp"
	"sort"
	"strings"

	perr "porter/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

// Record is one persisted pattern document. All patterns in a record share the
// record's domain, intent, priority and weight; the record order on the wire
// is the insertion-order tie-break
type Record struct {
	ID       string       `json:"id" validate:"required"`
	Domain   string       `json:"domain" validate:"required"`
	Intent   string       `json:"intent" validate:"required"`
	Priority int          `json:"priority"`
	Weight   float64      `json:"weight"`
	Patterns []Definition `json:"patterns" validate:"required,min=1,dive"`
}

// Definition is a single {regex, flags} pattern inside a record
type Definition struct {
	Regex string   `json:"regex" validate:"required"`
	Flags []string `json:"flags"`
}

// Rule is one compiled pattern rule. Lower Priority matches first; Order is
// the load position used as the deterministic tie-break when priorities are equal
type Rule struct {
	ID       string
	Domain   string
	Intent   string
	Source   string
	Priority int
	Order    int
	Weight   float64
	Re       *regexp.Regexp
}

// Catalog indexes compiled rules. Matching order is fixed at build time:
// priority ascending, then insertion order ascending, across all domains
type Catalog struct {
	rules    []Rule
	byDomain map[string][]Rule
	domains  map[string]struct{}
}

// flagMap translates persisted symbolic flag names to Go regexp inline flags.
// The names mirror the originating data pipeline's flag vocabulary
var flagMap = map[string]string{
	"IGNORECASE": "i",
	"MULTILINE":  "m",
	"DOTALL":     "s",
}

const defaultPriority = 100

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load validates and compiles records into a Catalog.
// A record that fails validation, names an unknown flag, or carries a regex
// that does not compile fails the whole load with a LoadError naming the record
func Load(records []Record) (*Catalog, error) {
	c := &Catalog{
		byDomain: make(map[string][]Rule, 8),
		domains:  make(map[string]struct{}, 8),
	}

	order := 0
	for _, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, perr.WithField(
				perr.Wrapf(err, perr.ErrorCodeLoad, "pattern record %q is malformed", rec.ID),
				rec.ID,
			)
		}

		prio := rec.Priority
		if prio == 0 {
			prio = defaultPriority
		}
		weight := rec.Weight
		if weight == 0 {
			weight = 1.0
		}

		for _, def := range rec.Patterns {
			src, err := applyFlags(def.Regex, def.Flags)
			if err != nil {
				return nil, perr.WithField(err, rec.ID)
			}
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, perr.WithField(
					perr.Wrapf(err, perr.ErrorCodeLoad, "pattern record %q: compile %q", rec.ID, def.Regex),
					rec.ID,
				)
			}
			r := Rule{
				ID:       rec.ID,
				Domain:   rec.Domain,
				Intent:   rec.Intent,
				Source:   def.Regex,
				Priority: prio,
				Order:    order,
				Weight:   weight,
				Re:       re,
			}
			order++
			c.rules = append(c.rules, r)
			c.byDomain[rec.Domain] = append(c.byDomain[rec.Domain], r)
			c.domains[rec.Domain] = struct{}{}
		}
	}

	// Fixed global matching order: priority asc, insertion order asc.
	// Stable across reloads of identical input because Order is assigned
	// from wire position, not map iteration
	sort.SliceStable(c.rules, func(i, j int) bool {
		if c.rules[i].Priority != c.rules[j].Priority {
			return c.rules[i].Priority < c.rules[j].Priority
		}
		return c.rules[i].Order < c.rules[j].Order
	})
	for d := range c.byDomain {
		rs := c.byDomain[d]
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Priority != rs[j].Priority {
				return rs[i].Priority < rs[j].Priority
			}
			return rs[i].Order < rs[j].Order
		})
	}

	return c, nil
}

// applyFlags prefixes the pattern with the inline flag group for the named flags
func applyFlags(pattern string, flags []string) (string, error) {
	if len(flags) == 0 {
		return pattern, nil
	}
	var b strings.Builder
	for _, f := range flags {
		short, ok := flagMap[strings.ToUpper(strings.TrimSpace(f))]
		if !ok {
			return "", perr.Loadf("unknown pattern flag %q", f)
		}
		b.WriteString(short)
	}
	return "(?" + b.String() + ")" + pattern, nil
}

// All returns every rule in global matching order
func (c *Catalog) All() []Rule { return c.rules }

// ForDomain returns the rules of one domain in matching order
func (c *Catalog) ForDomain(domain string) []Rule { return c.byDomain[domain] }

// HasDomain reports whether any rule is registered under domain
func (c *Catalog) HasDomain(domain string) bool {
	_, ok := c.domains[domain]
	return ok
}

// Domains returns the sorted set of domains the catalog knows about
func (c *Catalog) Domains() []string {
	out := make([]string, 0, len(c.domains))
	for d := range c.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of compiled rules
func (c *Catalog) Len() int { return len(c.rules) }
