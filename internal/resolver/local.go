package resolver

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/tripflow/flightfinder/internal/airports"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// suffixTokens are dropped from queries and dataset fields before
// matching; "San Francisco International Airport" and "San Francisco"
// should land on the same record.
var suffixTokens = map[string]struct{}{
	"airport":       {},
	"international": {},
	"intl":          {},
	"regional":      {},
	"airfield":      {},
}

// Local resolves place names against the in-memory airport table. It is
// the cheapest and most trusted resolver: exact city or airport-name
// matches score 1.0, fuzzy matches score proportionally and are gated by
// a similarity threshold to avoid false positives. It never fails; an
// absent match is a normal empty result.
type Local struct {
	table          *airports.Table
	fuzzyThreshold float64
	logger         *logger.Logger
}

// NewLocal creates a local dataset resolver. fuzzyThreshold is the
// minimum similarity score in (0,1] accepted from the fuzzy pass.
func NewLocal(table *airports.Table, fuzzyThreshold float64, log *logger.Logger) *Local {
	return &Local{
		table:          table,
		fuzzyThreshold: fuzzyThreshold,
		logger:         log.Named("local-resolver"),
	}
}

// Source implements Resolver.
func (l *Local) Source() Source {
	return SourceLocal
}

// Resolve implements Resolver.
func (l *Local) Resolve(_ context.Context, query Query) (Result, error) {
	place, hints := splitHints(query.Place)
	normPlace := normalizePlace(place)
	if normPlace == "" {
		return Result{}, nil
	}

	// A bare IATA code that exists in the table short-circuits everything.
	if code := strings.ToUpper(strings.TrimSpace(place)); airports.IsValidCode(code) {
		if record, ok := l.table.Get(code); ok {
			return Result{
				Code:       record.Code,
				Confidence: 1.0,
				Source:     SourceLocal,
				Candidates: []Candidate{toCandidate(record, 1.0)},
			}, nil
		}
	}

	if result := l.exactMatch(normPlace, hints); !result.Empty() {
		return result, nil
	}
	return l.fuzzyMatch(normPlace), nil
}

// exactMatch compares the normalized query against normalized city and
// airport-name fields. All ties are returned as candidates; the primary
// pick is deterministic by dataset order, with records matching a
// detected country hint promoted first.
func (l *Local) exactMatch(normPlace string, hints []string) Result {
	var matches []airports.Record
	for _, record := range l.table.Records() {
		if normalizePlace(record.City) == normPlace || normalizePlace(record.Name) == normPlace {
			matches = append(matches, record)
		}
	}
	if len(matches) == 0 {
		return Result{}
	}

	if len(hints) > 0 {
		matches = promoteCountryMatches(matches, hints)
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, record := range matches {
		candidates = append(candidates, toCandidate(record, 1.0))
	}

	l.logger.Debug("Exact dataset match",
		logger.String("place", normPlace),
		logger.String("code", matches[0].Code),
		logger.Int("candidates", len(candidates)))

	return Result{
		Code:       matches[0].Code,
		Confidence: 1.0,
		Source:     SourceLocal,
		Candidates: candidates,
	}
}

// fuzzyMatch scores every record by token overlap and edit distance and
// keeps those above the threshold. Confidence is the best score.
func (l *Local) fuzzyMatch(normPlace string) Result {
	type scored struct {
		record airports.Record
		score  float64
	}

	var matches []scored
	for _, record := range l.table.Records() {
		score := similarity(normPlace, normalizePlace(record.City))
		if nameScore := similarity(normPlace, normalizePlace(record.Name)); nameScore > score {
			score = nameScore
		}
		if score >= l.fuzzyThreshold {
			matches = append(matches, scored{record: record, score: score})
		}
	}
	if len(matches) == 0 {
		return Result{}
	}

	// Highest score first; dataset order breaks exact ties.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, toCandidate(m.record, m.score))
	}

	l.logger.Debug("Fuzzy dataset match",
		logger.String("place", normPlace),
		logger.String("code", matches[0].record.Code),
		logger.Float64("score", matches[0].score))

	return Result{
		Code:       matches[0].record.Code,
		Confidence: matches[0].score,
		Source:     SourceLocal,
		Candidates: candidates,
	}
}

// splitHints separates the place proper from trailing comma-qualified
// hints: "Paris, France" resolves "paris" with hint "france".
func splitHints(place string) (string, []string) {
	parts := strings.Split(place, ",")
	if len(parts) == 1 {
		return place, nil
	}
	var hints []string
	for _, part := range parts[1:] {
		if hint := normalizePlace(part); hint != "" {
			hints = append(hints, hint)
		}
	}
	return parts[0], hints
}

// promoteCountryMatches moves records whose country matches one of the
// hints to the front, preserving dataset order within each group.
func promoteCountryMatches(matches []airports.Record, hints []string) []airports.Record {
	var preferred, rest []airports.Record
	for _, record := range matches {
		country := normalizePlace(record.Country)
		hinted := false
		for _, hint := range hints {
			if country == hint {
				hinted = true
				break
			}
		}
		if hinted {
			preferred = append(preferred, record)
		} else {
			rest = append(rest, record)
		}
	}
	return append(preferred, rest...)
}

// normalizePlace lowercases, strips punctuation and drops generic
// airport suffix tokens.
func normalizePlace(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := suffixTokens[f]; !drop {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// similarity returns the better of token-overlap and normalized
// edit-distance similarity between two normalized strings, in [0,1].
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	overlap := tokenOverlap(a, b)
	edit := editSimilarity(a, b)
	if overlap > edit {
		return overlap
	}
	return edit
}

// tokenOverlap is the Jaccard index over whitespace-separated tokens.
func tokenOverlap(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, t := range strings.Fields(a) {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, t := range strings.Fields(b) {
		setB[t] = struct{}{}
	}

	var shared int
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// editSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)).
func editSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func toCandidate(record airports.Record, confidence float64) Candidate {
	return Candidate{
		Code:       record.Code,
		Name:       record.Name,
		City:       record.City,
		Country:    record.Country,
		Confidence: confidence,
	}
}
