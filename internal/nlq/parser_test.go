package nlq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// fakeCompletions serves an OpenAI-compatible chat-completions endpoint
// that always answers with content.
func fakeCompletions(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "chat/completions")

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestParse(t *testing.T) {
	srv := fakeCompletions(t, `{
		"origin_city": "San Francisco",
		"destination_city": "Tokyo",
		"departure_date": "2026-10-01",
		"return_date": "2026-10-15",
		"passengers": 2,
		"max_price": 1500,
		"trip_type": "roundtrip"
	}`)
	defer srv.Close()

	parser := NewParser("test-key", srv.URL+"/", "test-model", logger.NewNop())

	query, err := parser.Parse(context.Background(), "2 tickets SF to Tokyo Oct 1st, back on the 15th, under $1500")
	require.NoError(t, err)
	assert.Equal(t, "San Francisco", query.OriginCity)
	assert.Equal(t, "Tokyo", query.DestinationCity)
	assert.Equal(t, "2026-10-01", query.DepartureDate)
	assert.Equal(t, "2026-10-15", query.ReturnDate)
	assert.Equal(t, 2, query.Passengers)
	assert.Equal(t, 1500.0, query.MaxPrice)
	assert.Equal(t, TripTypeRoundtrip, query.TripType)
}

func TestParseFencedOutput(t *testing.T) {
	srv := fakeCompletions(t, "```json\n"+`{
		"origin_city": "Boston",
		"destination_city": "Paris",
		"departure_date": "2026-11-05",
		"return_date": "",
		"passengers": 0,
		"max_price": 0,
		"trip_type": ""
	}`+"\n```")
	defer srv.Close()

	parser := NewParser("test-key", srv.URL+"/", "test-model", logger.NewNop())

	query, err := parser.Parse(context.Background(), "flight from Boston to Paris Nov 5")
	require.NoError(t, err)
	assert.Equal(t, "Boston", query.OriginCity)
	// Normalize fills the defaults the model omitted
	assert.Equal(t, 1, query.Passengers)
	assert.Equal(t, TripTypeOneWay, query.TripType)
}

func TestParseMissingFields(t *testing.T) {
	srv := fakeCompletions(t, `{"origin_city": "", "destination_city": "Tokyo", "departure_date": "2026-10-01"}`)
	defer srv.Close()

	parser := NewParser("test-key", srv.URL+"/", "test-model", logger.NewNop())

	_, err := parser.Parse(context.Background(), "I want to go to Tokyo")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestParseUnparsableOutput(t *testing.T) {
	srv := fakeCompletions(t, "Sorry, I cannot help with that.")
	defer srv.Close()

	parser := NewParser("test-key", srv.URL+"/", "test-model", logger.NewNop())

	_, err := parser.Parse(context.Background(), "flight to nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse extraction output")
}

func TestParseEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": {"message": "boom"}}`)
	}))
	defer srv.Close()

	parser := NewParser("test-key", srv.URL+"/", "test-model", logger.NewNop())

	_, err := parser.Parse(context.Background(), "flight from A to B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Here you go: {"a": 1} hope that helps!`, `{"a": 1}`},
		{"no object at all", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
