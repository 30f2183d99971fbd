package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/driverlog/pkg/config"
	"github.com/ccollicutt/driverlog/pkg/detector"
	"github.com/ccollicutt/driverlog/pkg/output"
)

const bidiLog = `DEBUG:webdriver.bidi:→ {"id":1,"method":"session.new","params":{}}
DEBUG:webdriver.bidi:← {"id":1,"result":{"sessionId":"S"}}
`

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	return New(cfg, detector.New(), "test")
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestDetect(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", strings.NewReader(bidiLog))
	w := doRequest(s, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "webplatform", res.Dialect)
	assert.Equal(t, "webdriver.bidi prefix", res.Rule)
	assert.False(t, res.Fallback)
}

func TestDetectFallback(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", strings.NewReader("nothing here\n"))
	w := doRequest(s, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "chromedriver", res.Dialect)
	assert.True(t, res.Fallback)
}

func TestParseRawBody(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(bidiLog))
	w := doRequest(s, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report output.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "request", report.Source)
	assert.EqualValues(t, "webplatform", report.Dialect)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, 1, report.Summary.Commands)
	assert.Equal(t, 1, report.Summary.Responses)
	assert.Equal(t, 2, report.Summary.Correlated)
	assert.Equal(t, []string{"S"}, report.Summary.SessionIDs)
}

func TestParseJSONEnvelope(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	envelope, err := json.Marshal(map[string]string{
		"name":    "ci-run-42.log",
		"content": bidiLog,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", bytes.NewReader(envelope))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report output.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "ci-run-42.log", report.Source)
	assert.Len(t, report.Entries, 2)
}

func TestParseEnvelopeMissingContent(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content")
}

func TestParseGzipBody(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(bidiLog))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	w := doRequest(s, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report output.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Len(t, report.Entries, 2)
}

func TestParseForcedDialect(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	// transcript content that chromedriver detection would never pick
	body := `  webdriver:ws SEND ► '{"id":1,"method":"session.new","params":{}}'
`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse?dialect=transcript", strings.NewReader(body))
	w := doRequest(s, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report output.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.EqualValues(t, "transcript", report.Dialect)
	assert.Equal(t, "forced", report.DetectionRule)
	require.Len(t, report.Entries, 1)
}

func TestParseUnknownDialect(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse?dialect=geckodriver", strings.NewReader("x"))
	w := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown dialect")
}

func TestParseBodyTooLarge(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{MaxBodyBytes: 16})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(strings.Repeat("a", 64)))
	w := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{Listen: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// give the listener a moment, then trigger the graceful path
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
