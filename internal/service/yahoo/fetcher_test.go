package yahoo

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunpark20/lightstock/internal/domain/models"
	xhttp "github.com/sunpark20/lightstock/pkg/http"
)

// scriptedServer answers with the given statuses in order, repeating the last one.
func scriptedServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

type recordedSleeps struct {
	mu sync.Mutex
	d  []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	r.d = append(r.d, d)
	r.mu.Unlock()
	return nil
}

func newTestFetcher(rec *recordedSleeps) *Fetcher {
	f := NewFetcher(WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(time.Second))))
	if rec != nil {
		f.sleep = rec.sleep
	}
	return f
}

func TestFetchRetriesRateLimitThenSucceeds(t *testing.T) {
	srv, calls := scriptedServer(t, 429, 429, 200)
	rec := &recordedSleeps{}
	f := newTestFetcher(rec)

	body, err := f.Fetch(context.Background(), srv.URL, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.d, "backoff is constant")
}

func TestFetchGivesUpAfterRetryLimit(t *testing.T) {
	srv, calls := scriptedServer(t, 429)
	f := newTestFetcher(&recordedSleeps{})

	_, err := f.Fetch(context.Background(), srv.URL, nil)

	require.Error(t, err)
	var ue *models.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	assert.EqualValues(t, DefaultRetryLimit+1, atomic.LoadInt32(calls))
}

func TestFetchHonoursCustomRetryLimit(t *testing.T) {
	srv, calls := scriptedServer(t, 429)
	f := newTestFetcher(&recordedSleeps{})
	WithRetryLimit(4)(f)

	_, err := f.Fetch(context.Background(), srv.URL, nil)

	require.Error(t, err)
	assert.EqualValues(t, 5, atomic.LoadInt32(calls))
}

func TestFetchDoesNotRetryOtherStatuses(t *testing.T) {
	for _, status := range []int{400, 401, 404, 500, 503} {
		srv, calls := scriptedServer(t, status, 200)
		f := newTestFetcher(&recordedSleeps{})

		_, err := f.Fetch(context.Background(), srv.URL, nil)

		var ue *models.UpstreamError
		require.True(t, errors.As(err, &ue), "status %d", status)
		assert.Equal(t, status, ue.StatusCode)
		assert.EqualValues(t, 1, atomic.LoadInt32(calls), "status %d", status)
	}
}

func TestFetchRetriesNetworkFailures(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	rec := &recordedSleeps{}
	f := newTestFetcher(rec)

	_, err = f.Fetch(context.Background(), "http://"+addr+"/v8/finance/quote", nil)

	var ue *models.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Zero(t, ue.StatusCode)
	assert.True(t, ue.Retryable())
	assert.Len(t, rec.d, DefaultRetryLimit)
}

func TestFetchRetriesTimeouts(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	f := NewFetcher(WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(50 * time.Millisecond))))
	f.sleep = (&recordedSleeps{}).sleep

	body, err := f.Fetch(context.Background(), srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchRejectsInvalidJSON(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`<html>blocked</html>`))
	}))
	t.Cleanup(srv.Close)

	_, err := newTestFetcher(&recordedSleeps{}).Fetch(context.Background(), srv.URL, nil)

	assert.ErrorIs(t, err, models.ErrMalformedUpstreamData)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchSendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(WithUserAgent("lightstock-test"))
	_, err := f.Fetch(context.Background(), srv.URL, map[string]string{"X-Trace": "1"})

	require.NoError(t, err)
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "lightstock-test", got.Get("User-Agent"))
	assert.Equal(t, "1", got.Get("X-Trace"))
}

func TestFetchStopsWaitingOnCancel(t *testing.T) {
	srv, calls := scriptedServer(t, 429)
	f := newTestFetcher(nil)
	WithBackoff(time.Hour)(f)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for atomic.LoadInt32(calls) == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	_, err := f.Fetch(ctx, srv.URL, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}
