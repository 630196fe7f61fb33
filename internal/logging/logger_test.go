package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestMiddlewareLogsRequestAndExposesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})

	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/friends", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "/api/friends", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}
