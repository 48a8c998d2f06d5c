package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCachingTransport_CachesSuccessfulResponses(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list"}`))
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	do := func() string {
		resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"input":"hello"}`))
		require.NoError(t, err)
		defer func() {
			require.NoError(t, resp.Body.Close())
		}()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	first := do()
	second := do()

	require.Equal(t, first, second)
	require.Equal(t, int64(1), hits.Load(), "second request must be served from cache")
}

func TestCachingTransport_DistinctBodiesMiss(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	_, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"input":"a"}`))
	require.NoError(t, err)
	_, err = client.Post(srv.URL, "application/json", strings.NewReader(`{"input":"b"}`))
	require.NoError(t, err)

	require.Equal(t, int64(2), hits.Load(), "different bodies are different cache keys")
}

func TestCachingTransport_DoesNotCacheErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "upstream unhappy", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	for range 2 {
		resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"input":"x"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	}

	require.Equal(t, int64(2), hits.Load(), "non-2xx responses must not be cached")
}
