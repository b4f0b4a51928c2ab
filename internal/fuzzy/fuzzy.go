// Package fuzzy scores how closely a user-typed string matches a fixed
// vocabulary (categories, product types, brands) so lookups tolerate typos.
//
// The score is a 0-100 integer built from strutil's Jaro-Winkler metric over
// three views of the strings: the whole normalised strings, their sorted word
// lists, and the best single-word pairing (scaled down, as a partial match).
package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultThreshold is the minimum accepted score when none is configured.
const DefaultThreshold = 75

// partialScale discounts matches found on a single word of a longer string.
const partialScale = 0.9

var jaroWinkler = metrics.NewJaroWinkler()

type Status string

const (
	Found    Status = "found"
	NotFound Status = "not_found"
)

// Result is the outcome of matching one query against a candidate set.
// On NotFound, Match and Score still describe the best candidate (if any) so
// callers can offer a suggestion.
type Result struct {
	Status Status
	Match  string
	Score  int
	Reason string
}

// OK reports whether the query was accepted.
func (r Result) OK() bool { return r.Status == Found }

// Matcher applies a fixed acceptance threshold.
type Matcher struct {
	Threshold int
}

// New returns a Matcher, clamping threshold into [0,100].
func New(threshold int) Matcher {
	return Matcher{Threshold: clamp(threshold, 0, 100)}
}

// Match finds the best candidate for query. Candidates are returned with
// their original spelling.
func (m Matcher) Match(query string, candidates []string) Result {
	return Match(query, candidates, m.Threshold)
}

// Match finds the best candidate for query and accepts it iff its score is
// at least threshold.
func Match(query string, candidates []string, threshold int) Result {
	q := Normalize(query)
	if len(candidates) == 0 {
		return Result{Status: NotFound, Reason: "no candidates available to match against"}
	}
	if q == "" {
		return Result{Status: NotFound, Reason: "query is empty"}
	}

	best, bestScore := "", -1
	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" {
			continue
		}
		if nc == q {
			return Result{Status: Found, Match: c, Score: 100}
		}
		if s := score(q, nc); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore < 0 {
		return Result{Status: NotFound, Reason: "no candidates available to match against"}
	}

	if bestScore >= threshold {
		return Result{Status: Found, Match: best, Score: bestScore}
	}
	return Result{
		Status: NotFound,
		Match:  best,
		Score:  bestScore,
		Reason: fmt.Sprintf("best match %q score %d is below threshold %d", best, bestScore, threshold),
	}
}

// Score returns the similarity of a and b in [0,100].
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" && nb == "" {
		return 100
	}
	if na == nb {
		return 100
	}
	return score(na, nb)
}

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func score(a, b string) int {
	best := similarity(a, b)
	if s := similarity(sortedTokens(a), sortedTokens(b)); s > best {
		best = s
	}
	if s := partialScale * bestTokenPair(a, b); s > best {
		best = s
	}
	return int(math.Round(best * 100))
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

// bestTokenPair is the highest similarity between any word of a and any word
// of b. Single-word inputs on both sides are left to the full comparison.
func bestTokenPair(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) < 2 && len(tb) < 2 {
		return 0
	}
	best := 0.0
	for _, x := range ta {
		for _, y := range tb {
			if s := similarity(x, y); s > best {
				best = s
			}
		}
	}
	return best
}

func similarity(a, b string) float64 {
	return strutil.Similarity(a, b, jaroWinkler)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
