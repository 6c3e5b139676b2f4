package airports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// Table is the process-wide, read-only airport dataset. It is built once
// at startup and shared by every resolver; there is no mutation after
// Load returns, so concurrent reads need no locking.
type Table struct {
	records []Record
	byCode  map[string]int
	logger  *logger.Logger
}

// column aliases accepted in the CSV header. The canonical layout is
// code,name,city,country,latitude,longitude but OurAirports-style exports
// (iata_code, municipality, latitude_deg, ...) load the same way.
var columnAliases = map[string]string{
	"code":          "code",
	"iata_code":     "code",
	"name":          "name",
	"city":          "city",
	"municipality":  "city",
	"country":       "country",
	"iso_country":   "country",
	"latitude":      "latitude",
	"latitude_deg":  "latitude",
	"longitude":     "longitude",
	"longitude_deg": "longitude",
}

// LoadFile reads the airport dataset from a CSV file. A missing or
// unreadable file is a fatal configuration error; malformed rows inside
// the file are skipped, not fatal.
func LoadFile(path string, log *logger.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airport dataset: %w", err)
	}
	defer f.Close()

	table, err := Load(f, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load airport dataset %s: %w", path, err)
	}
	return table, nil
}

// Load reads the airport dataset from r. The first row must be a header
// naming at least the code, name, city, country and coordinate columns.
func Load(r io.Reader, log *logger.Logger) (*Table, error) {
	log = log.Named("airports")

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row width validated against the header below

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, exists := cols[canonical]; !exists {
			cols[canonical] = i
		}
	}
	for _, required := range []string{"code", "name", "city", "country", "latitude", "longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("dataset header missing %q column", required)
		}
	}

	table := &Table{
		byCode: make(map[string]int),
		logger: log,
	}

	var skipped int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A torn row is a data problem, not a config problem
			skipped++
			continue
		}

		record, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		if _, dup := table.byCode[record.Code]; dup {
			skipped++
			continue
		}

		table.byCode[record.Code] = len(table.records)
		table.records = append(table.records, record)
	}

	if len(table.records) == 0 {
		return nil, fmt.Errorf("dataset contains no usable airport records")
	}

	log.Info("Loaded airport dataset",
		logger.Int("airports", len(table.records)),
		logger.Int("skipped_rows", skipped))

	return table, nil
}

func parseRow(row []string, cols map[string]int) (Record, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	code := strings.ToUpper(field("code"))
	if !IsValidCode(code) {
		return Record{}, false
	}

	record := Record{
		Code:    code,
		Name:    field("name"),
		City:    field("city"),
		Country: field("country"),
	}
	if record.Name == "" && record.City == "" {
		return Record{}, false
	}

	lat, latErr := strconv.ParseFloat(field("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(field("longitude"), 64)
	if latErr == nil && lonErr == nil && validLatLon(lat, lon) {
		record.Latitude = lat
		record.Longitude = lon
		record.hasCoords = true
	}

	return record, true
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	return len(t.records)
}

// Get returns the record for a code, if present.
func (t *Table) Get(code string) (Record, bool) {
	i, ok := t.byCode[strings.ToUpper(code)]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Records returns the records in dataset order. The returned slice is
// shared; callers must not modify it.
func (t *Table) Records() []Record {
	return t.records
}

// Nearest returns the airport closest to the given point among records
// with valid coordinates, along with the distance in meters. ok is false
// when no record has coordinates.
func (t *Table) Nearest(lat, lon float64) (Record, float64, bool) {
	var (
		best     Record
		bestDist = -1.0
	)
	for _, record := range t.records {
		if !record.hasCoords {
			continue
		}
		dist := Haversine(lat, lon, record.Latitude, record.Longitude)
		if bestDist < 0 || dist < bestDist {
			best = record
			bestDist = dist
		}
	}
	if bestDist < 0 {
		return Record{}, 0, false
	}
	return best, bestDist, true
}
