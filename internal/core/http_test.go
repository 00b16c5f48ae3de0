package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "http://explorer.example.com/api"

func TestRequestJSON(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "eCryptoToken", body["name"])
		return httpmock.NewJsonResponse(200, map[string]interface{}{"status": "1"})
	})

	var result map[string]interface{}
	err := Request(context.Background(), "POST", testEndpoint, map[string]interface{}{"name": "eCryptoToken"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "1", result["status"])
}

func TestRequestForm(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "contract", req.PostForm.Get("module"))
		return httpmock.NewStringResponse(204, ""), nil
	})

	err := Request(context.Background(), "POST", testEndpoint, url.Values{"module": []string{"contract"}}, nil)
	assert.NoError(t, err)
}

func TestRequestErrorStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint, httpmock.NewStringResponder(502, "bad gateway"))

	err := Request(context.Background(), "GET", testEndpoint, nil, nil)
	assert.EqualError(t, err, "http://explorer.example.com/api [502] bad gateway")
}

func TestRequestWithRetry(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	defer SetRetryPolicy(30, 1*time.Second)
	SetRetryPolicy(2, time.Millisecond)

	httpmock.RegisterResponder("GET", testEndpoint, httpmock.ResponderFromMultipleResponses([]*http.Response{
		httpmock.NewStringResponse(503, "unavailable"),
		httpmock.NewStringResponse(200, `{"status":"1"}`),
	}))

	var result map[string]interface{}
	require.NoError(t, RequestWithRetry(context.Background(), "GET", testEndpoint, nil, &result))
	assert.Equal(t, "1", result["status"])
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestRequestWithRetryExhausted(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	defer SetRetryPolicy(30, 1*time.Second)
	SetRetryPolicy(2, time.Millisecond)

	httpmock.RegisterResponder("GET", testEndpoint, httpmock.NewStringResponder(503, "unavailable"))

	err := RequestWithRetry(context.Background(), "GET", testEndpoint, nil, nil)
	assert.ErrorContains(t, err, "[503] unavailable")
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestRequestTimeout(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	defer SetRequestTimeout(-1)

	var hasDeadline bool
	httpmock.RegisterResponder("GET", testEndpoint, func(req *http.Request) (*http.Response, error) {
		_, hasDeadline = req.Context().Deadline()
		return httpmock.NewStringResponse(204, ""), nil
	})

	require.NoError(t, Request(context.Background(), "GET", testEndpoint, nil, nil))
	assert.False(t, hasDeadline)

	SetRequestTimeout(5)
	require.NoError(t, Request(context.Background(), "GET", testEndpoint, nil, nil))
	assert.True(t, hasDeadline)
}

func TestRequestWithRetryLogsWhenVerbose(t *testing.T) {
	defer SetRetryPolicy(30, 1*time.Second)
	SetRetryPolicy(1, time.Millisecond)

	for _, verbose := range []bool{false, true} {
		httpmock.Activate()
		httpmock.RegisterResponder("GET", testEndpoint, httpmock.NewStringResponder(503, "unavailable"))

		var out bytes.Buffer
		ctx := log.WithLogger(context.Background(), &log.StdoutLogger{LogLevel: log.Debug, Out: &out, Err: &out})
		ctx = log.WithVerbosity(ctx, verbose)
		assert.Error(t, RequestWithRetry(ctx, "GET", testEndpoint, nil, nil))
		if verbose {
			assert.Contains(t, out.String(), "retrying request")
		} else {
			assert.Empty(t, out.String())
		}
		httpmock.DeactivateAndReset()
	}
}
