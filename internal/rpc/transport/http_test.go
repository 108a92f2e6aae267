package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_SubmitRoundTripsThroughMount(t *testing.T) {
	s := echoServer()
	ts := httptest.NewServer(Mount(s))
	defer ts.Close()

	tr := NewHTTP(ts.URL + "/")
	raw, err := tr.Submit(map[string]any{
		"jsonrpc": "2.0", "id": "1", "method": "Echo.ping", "params": []any{"hi"},
	})
	require.NoError(t, err)

	resp, ok := raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", resp["result"])
}

func TestHTTP_SubmitSurfacesMalformedMethod(t *testing.T) {
	s := echoServer()
	ts := httptest.NewServer(Mount(s))
	defer ts.Close()

	tr := NewHTTP(ts.URL + "/")
	raw, err := tr.Submit(map[string]any{
		"jsonrpc": "2.0", "id": "1", "method": "NotRegistered",
	})
	require.NoError(t, err)

	resp, ok := raw.(map[string]any)
	require.True(t, ok)
	errObj, ok := resp["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32601), errObj["code"])
}

func TestHTTP_CORSPreflight(t *testing.T) {
	s := echoServer()
	ts := httptest.NewServer(Mount(s))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHTTP_HealthzEndpoint(t *testing.T) {
	s := echoServer()
	ts := httptest.NewServer(Mount(s))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
