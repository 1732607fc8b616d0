package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Timeout = 2 * time.Second
	opts.RetryWaitMin = time.Millisecond
	opts.RetryWaitMax = 5 * time.Millisecond
	opts.RequestsPerSecond = 0
	return opts
}

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version":2,"data":[]}`))
	}))
	defer server.Close()

	body, err := NewClient(testOptions()).FetchJSON(context.Background(), server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"data":[]}`, string(body))
}

func TestFetchJSONNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(testOptions()).FetchJSON(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	body, err := NewClient(testOptions()).FetchJSON(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchJSONRejectsScheme(t *testing.T) {
	_, err := NewClient(testOptions()).FetchJSON(context.Background(), "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrScheme)

	_, err = NewClient(testOptions()).FetchJSON(context.Background(), "::not a url")
	assert.Error(t, err)
}

func TestFetchJSONBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	opts := testOptions()
	opts.MaxBytes = 16
	_, err := NewClient(opts).FetchJSON(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

type endlessReader struct{ read int64 }

func (r *endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	r.read += int64(len(p))
	return len(p), nil
}

func TestReadBodyStopsAtLimit(t *testing.T) {
	c := NewClient(Options{MaxBytes: 1024})

	src := &endlessReader{}
	_, err := c.readBody(src)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Equal(t, int64(1025), src.read)

	body, err := c.readBody(strings.NewReader(strings.Repeat("y", 1024)))
	require.NoError(t, err)
	assert.Len(t, body, 1024)
}

func TestFetchJSONStreamingBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := []byte(strings.Repeat("x", 4096))
		for i := 0; i < 256; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	opts := testOptions()
	opts.MaxBytes = 8 << 10
	_, err := NewClient(opts).FetchJSON(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}
