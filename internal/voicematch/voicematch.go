// Package voicematch resolves loosely-remembered voice names against a
// backend's voice catalogue using Double Metaphone phonetic encoding combined
// with Jaro-Winkler string similarity.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each word in the query and for each catalogue name. If any code from
//     the query overlaps with any code from a name, the voice becomes a
//     phonetic candidate.
//
//  2. Jaro-Winkler ranking: Among phonetic candidates, the voice with the
//     highest Jaro-Winkler similarity (computed on the original strings,
//     case-insensitive) is selected, provided its score exceeds the
//     configurable phonetic threshold.
//
//     When no phonetic candidate is found, a secondary pass tests pure
//     Jaro-Winkler similarity against all names using a higher fuzzy
//     threshold (default 0.85).
//
// Multi-word names (e.g., "Claribel Dervla") are supported: the matcher
// computes phonetic codes per word and considers the best pairwise score
// across all word pairs when ranking candidates.
package voicematch

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched voice to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher ranks voice catalogue entries against a spoken or typed query.
// All methods are safe for concurrent use; the Matcher is read-only after
// construction.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Matcher] configured with the supplied options.
// Default thresholds are 0.70 for phonetic matches and 0.85 for fuzzy
// fallback matches.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match finds the voice whose name is most similar to query.
//
// query may be a single word or a space-separated phrase. When query contains
// multiple tokens, the matcher checks whether any token phonetically aligns
// with any token of a multi-word name, then ranks by Jaro-Winkler on the full
// strings.
//
// When matched is false, best is the zero Voice and confidence is 0.
func (m *Matcher) Match(query string, voices []synth.Voice) (best synth.Voice, confidence float64, matched bool) {
	if len(voices) == 0 || strings.TrimSpace(query) == "" {
		return synth.Voice{}, 0, false
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryTokens := strings.Fields(queryLower)

	queryCodes := codesForTokens(queryTokens)

	type candidate struct {
		voice    synth.Voice
		score    float64
		phonetic bool
	}

	var top candidate

	for _, voice := range voices {
		nameLower := strings.ToLower(strings.TrimSpace(voice.Name))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)

		nameCodes := codesForTokens(nameTokens)
		phoneticMatch := codesOverlap(queryCodes, nameCodes)

		jwScore := bestJWScore(queryTokens, nameTokens, queryLower, nameLower)

		if phoneticMatch {
			if jwScore >= m.phoneticThreshold {
				if !top.phonetic || jwScore > top.score {
					top = candidate{voice: voice, score: jwScore, phonetic: true}
				}
			}
		} else if !top.phonetic {
			if jwScore >= m.fuzzyThreshold && jwScore > top.score {
				top = candidate{voice: voice, score: jwScore, phonetic: false}
			}
		}
	}

	if top.voice.Name != "" {
		return top.voice, top.score, true
	}
	return synth.Voice{}, 0, false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when the word is too short or
// contains no consonants) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between the query
// and the name using three strategies:
//
//  1. Full-string comparison (e.g., "clara bell" vs "claribel").
//  2. Space-stripped comparison (e.g., "clarabell" vs "claribel").
//  3. Best pairwise word comparison: the maximum JW score between any query
//     token and any name token (useful when the user remembers one word of a
//     two-word name).
//
// longTolerance is passed as false to use standard Jaro-Winkler scoring.
func bestJWScore(queryTokens, nameTokens []string, queryFull, nameFull string) float64 {
	// Strategy 1: full strings.
	score := matchr.JaroWinkler(queryFull, nameFull, false)

	// Strategy 2: concatenated (no spaces).
	if len(queryTokens) > 1 || len(nameTokens) > 1 {
		concat1 := strings.Join(queryTokens, "")
		concat2 := strings.Join(nameTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	// Strategy 3: best pairwise token score.
	for _, qt := range queryTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(qt, nt, false); s > score {
				score = s
			}
		}
	}

	return score
}
