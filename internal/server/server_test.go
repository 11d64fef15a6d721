package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storeops/logship/internal/errors"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New("localhost", 8080)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeEnvelope(t *testing.T, resp *http.Response) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestNew(t *testing.T) {
	s := New("localhost", 9090)
	assert.Equal(t, 9090, s.Port())
	assert.NotNil(t, s.Handler())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, decodeEnvelope(t, resp).Error.Code)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/export")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, apperrors.CodeMethodNotAllowed, decodeEnvelope(t, resp).Error.Code)
}

func TestAnalyze_BadBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/analyze", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.CodeBadRequest, decodeEnvelope(t, resp).Error.Code)
}

func TestAnalyze_MalformedCredentials(t *testing.T) {
	srv := newTestServer(t)

	body := `{"backend":"gcs","bucket":"logs","clientEmail":"svc@example.com","privateKey":"no pem markers here"}`
	resp, err := http.Post(srv.URL+"/v1/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperrors.CodeCredentialError, decodeEnvelope(t, resp).Error.Code)
}

func TestExport_MissingCredentials(t *testing.T) {
	srv := newTestServer(t)

	body := `{"backend":"s3","logType":"api_access","startDate":"2024/01/01","endDate":"2024/01/01","limit":10}`
	resp, err := http.Post(srv.URL+"/v1/export", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperrors.CodeCredentialError, decodeEnvelope(t, resp).Error.Code)
}

func TestExport_EndToEnd(t *testing.T) {
	// A stand-in S3-compatible store: one prefix with one object.
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logs-bucket" {
			prefix := r.URL.Query().Get("prefix")
			if prefix != "2024/01/15/" {
				_, _ = w.Write([]byte(`<ListBucketResult></ListBucketResult>`))
				return
			}
			_, _ = w.Write([]byte(`<ListBucketResult>
<Contents><Key>2024/01/15/s1.api_access.aaa.json</Key><Size>64</Size></Contents>
</ListBucketResult>`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timestamp":"2024-01-15T10:00:00Z","statusCode":200}` + "\n" +
			`{"timestamp":"2024-01-15T10:00:01Z","statusCode":404}` + "\n"))
	}))
	defer store.Close()

	srv := newTestServer(t)

	body := fmt.Sprintf(`{
		"backend": "s3",
		"bucket": "logs-bucket",
		"accessKeyId": "AKIDEXAMPLE",
		"secretAccessKey": "secret",
		"endpoint": %q,
		"logType": "api_access",
		"startDate": "2024/01/15",
		"endDate": "2024/01/15",
		"limit": 100
	}`, store.URL)

	resp, err := http.Post(srv.URL+"/v1/export", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3, "header plus two data rows")
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,"))
	assert.Contains(t, lines[1], "2024-01-15T10:00:00Z")
}
