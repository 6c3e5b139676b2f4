package nlq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/flightfinder/pkg/logger"
)

func TestFormat(t *testing.T) {
	srv := fakeCompletions(t, "  I found 2 flights; the cheapest is $289 on Delta.  ")
	defer srv.Close()

	formatter := NewFormatter("test-key", srv.URL+"/", "test-model", logger.NewNop())

	answer, err := formatter.Format(context.Background(), "SF to NYC", map[string]any{"offers": 2})
	require.NoError(t, err)
	assert.Equal(t, "I found 2 flights; the cheapest is $289 on Delta.", answer)
}

func TestFormatEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	formatter := NewFormatter("test-key", srv.URL+"/", "test-model", logger.NewNop())

	_, err := formatter.Format(context.Background(), "SF to NYC", map[string]any{})
	require.Error(t, err)
}
