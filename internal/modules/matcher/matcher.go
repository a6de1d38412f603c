// Package matcher resolves GeoJSON features to dataset countries.
//
// Matching is a best-effort chain, first hit wins:
//
//  1. exact ISO-2 or ISO-3 code equality
//  2. a 3-letter feature code whose first two letters equal a 2-letter country code
//  3. a 2-letter feature code that prefixes a country code
//
// Steps 2 and 3 use a single feature code: ISO_A2 when present, else ISO_A3.
// A feature carrying ISO_A2 never reaches the 3-letter prefix rule.
//  4. case-insensitive name equality
//  5. case-insensitive substring match in either direction
//
// Step 5 can conflate unrelated names that share a substring. It is kept as
// a last resort, not a correctness guarantee.
package matcher

import (
	"strings"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/rs/zerolog"
)

// Rule names the step of the chain that produced a match.
type Rule string

const (
	RuleExactCode  Rule = "exact_code"
	RuleISO3Prefix Rule = "iso3_prefix"
	RuleISO2Prefix Rule = "iso2_prefix"
	RuleExactName  Rule = "exact_name"
	RuleSubstring  Rule = "substring"
)

// Matcher matches features against one dataset snapshot. It is immutable
// and safe for concurrent use.
type Matcher struct {
	countries []domain.Country
	log       zerolog.Logger
}

// New creates a matcher over countries, kept in the given order.
func New(countries []domain.Country, log zerolog.Logger) *Matcher {
	return &Matcher{
		countries: append([]domain.Country(nil), countries...),
		log:       log.With().Str("component", "matcher").Logger(),
	}
}

// Countries returns the dataset the matcher was built with.
func (m *Matcher) Countries() []domain.Country {
	return append([]domain.Country(nil), m.countries...)
}

type featureKeys struct {
	iso2, iso3 string
	names      []string
}

// code is the one code used by the prefix rules.
func (k featureKeys) code() string {
	if k.iso2 != "" {
		return k.iso2
	}
	return k.iso3
}

func keysOf(f geo.Feature) featureKeys {
	k := featureKeys{
		iso2: strings.ToUpper(f.Prop("ISO_A2")),
		iso3: strings.ToUpper(f.Prop("ISO_A3")),
	}
	if k.iso3 == "" {
		if id, ok := f.ID.(string); ok && len(id) == 3 && id != "-99" {
			k.iso3 = strings.ToUpper(id)
		}
	}
	for _, key := range []string{"NAME", "ADMIN", "name"} {
		if s := f.Prop(key); s != "" {
			k.names = append(k.names, strings.ToLower(s))
		}
	}
	return k
}

// Match resolves a feature to a country.
func (m *Matcher) Match(f geo.Feature) (domain.Country, bool) {
	c, _, ok := m.MatchWithRule(f)
	return c, ok
}

// MatchWithRule resolves a feature and reports which rule matched.
func (m *Matcher) MatchWithRule(f geo.Feature) (domain.Country, Rule, bool) {
	k := keysOf(f)

	if k.iso2 != "" || k.iso3 != "" {
		for _, c := range m.countries {
			code := strings.ToUpper(c.ISOCode)
			if code != "" && (code == k.iso2 || code == k.iso3) {
				return c, RuleExactCode, true
			}
		}
	}

	code := k.code()

	if len(code) == 3 {
		prefix := code[:2]
		for _, c := range m.countries {
			if cc := strings.ToUpper(c.ISOCode); len(cc) == 2 && cc == prefix {
				return c, RuleISO3Prefix, true
			}
		}
	}

	if len(code) == 2 {
		for _, c := range m.countries {
			if strings.HasPrefix(strings.ToUpper(c.ISOCode), code) {
				return c, RuleISO2Prefix, true
			}
		}
	}

	for _, c := range m.countries {
		name := strings.ToLower(c.Name)
		for _, fn := range k.names {
			if name != "" && name == fn {
				return c, RuleExactName, true
			}
		}
	}

	for _, c := range m.countries {
		name := strings.ToLower(c.Name)
		if name == "" {
			continue
		}
		for _, fn := range k.names {
			if strings.Contains(fn, name) || strings.Contains(name, fn) {
				return c, RuleSubstring, true
			}
		}
	}

	m.log.Debug().
		Str("iso_a2", k.iso2).
		Str("iso_a3", k.iso3).
		Strs("names", k.names).
		Msg("No country for feature")
	return domain.Country{}, "", false
}

// FeatureFor finds the geometry of a country: code equality first, then
// exact name, then substring.
func FeatureFor(c domain.Country, features []geo.Feature) (geo.Feature, bool) {
	code := strings.ToUpper(c.ISOCode)
	name := strings.ToLower(c.Name)

	if code != "" {
		for _, f := range features {
			k := keysOf(f)
			if code == k.iso2 || code == k.iso3 {
				return f, true
			}
		}
	}

	if name == "" {
		return geo.Feature{}, false
	}

	for _, f := range features {
		for _, fn := range keysOf(f).names {
			if fn == name {
				return f, true
			}
		}
	}

	for _, f := range features {
		for _, fn := range keysOf(f).names {
			if strings.Contains(fn, name) || strings.Contains(name, fn) {
				return f, true
			}
		}
	}

	return geo.Feature{}, false
}
