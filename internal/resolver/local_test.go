package resolver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/flightfinder/internal/airports"
	"github.com/tripflow/flightfinder/pkg/logger"
)

const testCSV = `code,name,city,country,latitude,longitude
SFO,San Francisco International Airport,San Francisco,United States,37.6189,-122.3750
SJC,Norman Y. Mineta San Jose International Airport,San Jose,United States,37.3626,-121.9291
DFW,Dallas Fort Worth International Airport,Dallas,United States,32.8998,-97.0403
DAL,Dallas Love Field,Dallas,United States,32.8471,-96.8518
YYZ,Toronto Pearson International Airport,Toronto,Canada,43.6777,-79.6248
LHR,Heathrow Airport,London,United Kingdom,51.4706,-0.4619
YXU,London International Airport,London,Canada,43.0356,-81.1539
`

func testTable(t *testing.T) *airports.Table {
	t.Helper()
	table, err := airports.Load(strings.NewReader(testCSV), logger.NewNop())
	require.NoError(t, err)
	return table
}

func TestLocalExactCityMatch(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	result, err := local.Resolve(context.Background(), Query{Place: "San Francisco"})
	require.NoError(t, err)
	assert.Equal(t, "SFO", result.Code)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, SourceLocal, result.Source)
}

func TestLocalSuffixTokensStripped(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	for _, place := range []string{
		"San Francisco Airport",
		"san francisco international",
		"San Francisco International Airport",
	} {
		result, err := local.Resolve(context.Background(), Query{Place: place})
		require.NoError(t, err)
		assert.Equal(t, "SFO", result.Code, "place %q", place)
		assert.Equal(t, 1.0, result.Confidence)
	}
}

func TestLocalAmbiguousCity(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	result, err := local.Resolve(context.Background(), Query{Place: "Dallas"})
	require.NoError(t, err)

	// Both Dallas airports surface as candidates; the primary pick is
	// deterministic by dataset order.
	assert.Equal(t, "DFW", result.Code)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "DFW", result.Candidates[0].Code)
	assert.Equal(t, "DAL", result.Candidates[1].Code)
}

func TestLocalCountryHint(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	// Without a hint, dataset order picks Heathrow
	result, err := local.Resolve(context.Background(), Query{Place: "London"})
	require.NoError(t, err)
	assert.Equal(t, "LHR", result.Code)

	// A country hint promotes the Canadian London
	result, err = local.Resolve(context.Background(), Query{Place: "London, Canada"})
	require.NoError(t, err)
	assert.Equal(t, "YXU", result.Code)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "YXU", result.Candidates[0].Code)
}

func TestLocalFuzzyMatch(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	result, err := local.Resolve(context.Background(), Query{Place: "San Fransisco"})
	require.NoError(t, err)
	assert.Equal(t, "SFO", result.Code)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
	assert.Less(t, result.Confidence, 1.0)
}

func TestLocalFuzzyBelowThreshold(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	result, err := local.Resolve(context.Background(), Query{Place: "Springfield"})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestLocalBareIATACode(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	result, err := local.Resolve(context.Background(), Query{Place: "sjc"})
	require.NoError(t, err)
	assert.Equal(t, "SJC", result.Code)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestLocalEmptyInput(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	result, err := local.Resolve(context.Background(), Query{Place: "   "})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestLocalIdempotent(t *testing.T) {
	local := NewLocal(testTable(t), 0.8, logger.NewNop())

	first, err := local.Resolve(context.Background(), Query{Place: "Dallas"})
	require.NoError(t, err)
	second, err := local.Resolve(context.Background(), Query{Place: "Dallas"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizePlace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"San Francisco", "san francisco"},
		{"St. John's", "st john s"},
		{"Toronto Pearson International Airport", "toronto pearson"},
		{"  DALLAS  ", "dallas"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePlace(tt.in), "input %q", tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("dallas", "dallas"))
	assert.Greater(t, similarity("san fransisco", "san francisco"), 0.9)
	assert.Less(t, similarity("tokyo", "toronto"), 0.8)
	assert.Zero(t, similarity("", "dallas"))
}
