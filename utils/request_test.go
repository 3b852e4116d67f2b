package utils

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClientRetriesRateLimitOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewRestyClient(ClientOptions{RateLimitBackoff: 10 * time.Millisecond})
	resp, err := client.R().Get(server.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRestyClientGivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewRestyClient(ClientOptions{RateLimitBackoff: 10 * time.Millisecond})
	resp, err := client.R().Get(server.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRestyClientWithoutBackoffDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewRestyClient(ClientOptions{})
	resp, err := client.R().Get(server.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode())
	assert.Equal(t, int32(1), calls.Load())
}
