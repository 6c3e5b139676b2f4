package airports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/flightfinder/pkg/logger"
)

const testCSV = `code,name,city,country,latitude,longitude
SFO,San Francisco International Airport,San Francisco,United States,37.6189,-122.3750
SJC,Norman Y. Mineta San Jose International Airport,San Jose,United States,37.3626,-121.9291
OAK,Oakland International Airport,Oakland,United States,37.7213,-122.2207
DFW,Dallas Fort Worth International Airport,Dallas,United States,32.8998,-97.0403
DAL,Dallas Love Field,Dallas,United States,32.8471,-96.8518
YYZ,Toronto Pearson International Airport,Toronto,Canada,43.6777,-79.6248
LHR,Heathrow Airport,London,United Kingdom,51.4706,-0.4619
ZZZ,Phantom Field,Nowhereville,Atlantis,,
B4D,Numeric Code,Badtown,Erewhon,1.0,1.0
,Missing Code,Badtown,Erewhon,1.0,1.0
`

func loadTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := Load(strings.NewReader(testCSV), logger.NewNop())
	require.NoError(t, err)
	return table
}

func TestLoad(t *testing.T) {
	table := loadTestTable(t)

	// Two rows have invalid codes and are skipped entirely
	assert.Equal(t, 8, table.Len())

	record, ok := table.Get("SFO")
	require.True(t, ok)
	assert.Equal(t, "San Francisco", record.City)
	assert.Equal(t, "United States", record.Country)
	assert.True(t, record.HasCoordinates())

	// Missing coordinates keep the record but exclude it from distance search
	phantom, ok := table.Get("ZZZ")
	require.True(t, ok)
	assert.False(t, phantom.HasCoordinates())
}

func TestLoadHeaderAliases(t *testing.T) {
	csv := `iata_code,name,municipality,iso_country,latitude_deg,longitude_deg
SEA,Seattle-Tacoma International Airport,Seattle,US,47.4502,-122.3088
`
	table, err := Load(strings.NewReader(csv), logger.NewNop())
	require.NoError(t, err)

	record, ok := table.Get("SEA")
	require.True(t, ok)
	assert.Equal(t, "Seattle", record.City)
	assert.True(t, record.HasCoordinates())
}

func TestLoadMissingColumn(t *testing.T) {
	csv := "code,name\nSFO,San Francisco International Airport\n"
	_, err := Load(strings.NewReader(csv), logger.NewNop())
	assert.ErrorContains(t, err, "missing")
}

func TestLoadEmptyDataset(t *testing.T) {
	csv := "code,name,city,country,latitude,longitude\n"
	_, err := Load(strings.NewReader(csv), logger.NewNop())
	assert.ErrorContains(t, err, "no usable airport records")
}

func TestNearest(t *testing.T) {
	table := loadTestTable(t)

	// Daly City, a few kilometers north of SFO
	record, distMeters, ok := table.Nearest(37.6879, -122.4702)
	require.True(t, ok)
	assert.Equal(t, "SFO", record.Code)
	assert.Less(t, MetersToKM(distMeters), 15.0)

	// Downtown Dallas is closer to Love Field than to DFW
	record, _, ok = table.Nearest(32.7767, -96.7970)
	require.True(t, ok)
	assert.Equal(t, "DAL", record.Code)
}

func TestHaversine(t *testing.T) {
	// SFO to LHR is roughly 8600 km
	dist := Haversine(37.6189, -122.3750, 51.4706, -0.4619)
	assert.InDelta(t, 8630.0, MetersToKM(dist), 50.0)

	// Zero distance for identical points
	assert.Zero(t, Haversine(43.6777, -79.6248, 43.6777, -79.6248))
}

func TestIsValidCode(t *testing.T) {
	assert.True(t, IsValidCode("SFO"))
	assert.False(t, IsValidCode("sfo"))
	assert.False(t, IsValidCode("SFOX"))
	assert.False(t, IsValidCode("SF"))
	assert.False(t, IsValidCode("S1O"))
}
