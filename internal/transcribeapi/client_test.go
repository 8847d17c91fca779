package transcribeapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghardin1314/scribe/internal/httpclient"
)

func writeTempWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVEfmt "), 0o644))
	return path
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	hc := httpclient.New(&cfg)
	t.Cleanup(hc.Close)
	return New(hc, Config{APIURL: url, Model: "whisper-1"})
}

func TestTranscribeParsesSuccessResponse(t *testing.T) {
	wav := writeTempWAV(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "word", r.FormValue("timestamp_granularities[]"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"text":"hi","duration":1.5,"segments":[{"start":0,"end":1.5,"text":"hi"}],"words":[{"word":"hi","start":0,"end":0.5}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.Transcribe(t.Context(), wav)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Text)
	require.Len(t, out.Words, 1)
}

func TestTranscribeRetriesThenSucceeds(t *testing.T) {
	wav := writeTempWAV(t)
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"text":"ok","duration":0.1,"segments":[],"words":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.Transcribe(t.Context(), wav)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, 3, attempts)
}

func TestTranscribeFailsAfterMaxAttempts(t *testing.T) {
	wav := writeTempWAV(t)
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Transcribe(t.Context(), wav)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, attempts)
}

func TestTranscribeDoesNotRetryNonRetryableStatus(t *testing.T) {
	wav := writeTempWAV(t)
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Transcribe(t.Context(), wav)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
