package geonames

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/flightfinder/pkg/logger"
)

func TestSearchAirports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Keflavik", q.Get("q"))
		assert.Equal(t, "S", q.Get("featureClass"))
		assert.Equal(t, "AIRP", q.Get("featureCode"))
		assert.Equal(t, "FULL", q.Get("style"))
		assert.Equal(t, "demo", q.Get("username"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"geonames": [
				{
					"name": "Keflavik International Airport",
					"toponymName": "Keflavik International Airport",
					"adminName1": "Southern Peninsula",
					"countryName": "Iceland",
					"lat": "63.9850",
					"lng": "-22.6056",
					"alternateNames": [
						{"lang": "iata", "name": "KEF"},
						{"lang": "icao", "name": "BIKF"}
					]
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "demo", 10, 5*time.Second, logger.NewNop())

	airports, err := client.SearchAirports(context.Background(), "Keflavik")
	require.NoError(t, err)
	require.Len(t, airports, 1)
	assert.Equal(t, "KEF", airports[0].Code)
	assert.Equal(t, "Iceland", airports[0].Country)
	assert.InDelta(t, 63.9850, airports[0].Latitude, 0.0001)
}

func TestSearchAirportsCodeFromDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"geonames": [
				{"name": "Tenerife South Airport (TFS)", "toponymName": "Aeropuerto de Tenerife Sur", "countryName": "Spain", "lat": "28.0445", "lng": "-16.5725"},
				{"name": "Small Strip", "toponymName": "Small Strip", "countryName": "Spain", "lat": "28.1", "lng": "-16.6"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "demo", 10, 5*time.Second, logger.NewNop())

	airports, err := client.SearchAirports(context.Background(), "Tenerife")
	require.NoError(t, err)
	require.Len(t, airports, 2)
	assert.Equal(t, "TFS", airports[0].Code)
	assert.Empty(t, airports[1].Code)
}

func TestSearchAirportsEmptyUsername(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 10, 5*time.Second, logger.NewNop())

	_, err := client.SearchAirports(context.Background(), "Paris")
	require.ErrorIs(t, err, ErrAuth)
	assert.False(t, called)
}

func TestSearchAirportsAuthStatusInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"message": "user does not exist.", "value": 10}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "nobody", 10, 5*time.Second, logger.NewNop())

	_, err := client.SearchAirports(context.Background(), "Paris")
	require.ErrorIs(t, err, ErrAuth)
}

func TestSearchAirportsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"message": "hourly limit exceeded.", "value": 19}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "demo", 10, 5*time.Second, logger.NewNop())

	_, err := client.SearchAirports(context.Background(), "Paris")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSearchAirportsHTTPUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "demo", 10, 5*time.Second, logger.NewNop())

	_, err := client.SearchAirports(context.Background(), "Paris")
	require.ErrorIs(t, err, ErrAuth)
}

func TestExtractIATACode(t *testing.T) {
	tests := []struct {
		name string
		g    geoname
		want string
	}{
		{
			name: "iata alternate name wins",
			g: geoname{
				Name:           "Haneda Airport (HND)",
				AlternateNames: []alternateName{{Lang: "iata", Name: "HND"}},
			},
			want: "HND",
		},
		{
			name: "parenthesized display form",
			g:    geoname{Name: "Narita International Airport (NRT)"},
			want: "NRT",
		},
		{
			name: "toponym fallback",
			g:    geoname{Name: "Chubu Centrair", ToponymName: "Chubu Centrair International Airport (NGO)"},
			want: "NGO",
		},
		{
			name: "non-code parenthetical ignored",
			g:    geoname{Name: "Old Field (closed)"},
			want: "",
		},
		{
			name: "no code",
			g:    geoname{Name: "Grass Strip"},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractIATACode(tt.g))
		})
	}
}
