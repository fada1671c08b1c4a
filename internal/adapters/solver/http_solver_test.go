package solver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-compare-service/internal/adapters/cache"
)

func newRemote(t *testing.T, url string, opts ...HTTPOption) *HTTPRouteSolver {
	t.Helper()
	opts = append([]HTTPOption{WithRetry(3, time.Millisecond)}, opts...)
	s, err := NewHTTPRouteSolver("remote", url, opts...)
	require.NoError(t, err)
	return s
}

func TestHTTPRouteSolverAcceptsRouteField(t *testing.T) {
	var got remoteSolveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"route":[5,4,3,2,1,0],"distance":12.5,"energy":-3}`)
	}))
	defer srv.Close()

	req := berlinRequest()
	req.Params = map[string]any{"timeout": 5.0}
	s := newRemote(t, srv.URL, WithAPIKey("secret"), WithParams(map[string]any{"timeout": 1.0, "mode": "fast"}))

	out, err := s.Solve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, out.Order)
	require.NotNil(t, out.ReportedKm)
	assert.Equal(t, 12.5, *out.ReportedKm)
	require.NotNil(t, out.Energy)
	assert.Equal(t, -3.0, *out.Energy)

	assert.Len(t, got.Points, 6)
	assert.True(t, got.RoundTrip)
	require.NotNil(t, got.Start)
	assert.Nil(t, got.End)
	assert.Equal(t, 5.0, got.Params["timeout"])
	assert.Equal(t, "fast", got.Params["mode"])
}

func TestHTTPRouteSolverRejectsInvalidOrders(t *testing.T) {
	cases := map[string]string{
		"empty":     `{"order":[]}`,
		"partial":   `{"order":[0,1,2]}`,
		"duplicate": `{"order":[0,1,2,3,4,4]}`,
		"range":     `{"order":[0,1,2,3,4,6]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			_, err := newRemote(t, srv.URL).Solve(context.Background(), berlinRequest())
			assert.ErrorIs(t, err, ErrInvalidRemoteOrder)
		})
	}
}

func TestHTTPRouteSolverRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"order":[0,1,2,3,4,5]}`)
	}))
	defer srv.Close()

	out, err := newRemote(t, srv.URL).Solve(context.Background(), berlinRequest())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, out.Order)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPRouteSolverDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad points", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newRemote(t, srv.URL).Solve(context.Background(), berlinRequest())
	require.Error(t, err)

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "bad points", he.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPRouteSolverServesFromCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"order":[1,0,2,3,4,5]}`)
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newRemote(t, srv.URL, WithCache(cache.NewRedisSolverCache(client, time.Minute)))

	for range 2 {
		out, err := s.Solve(context.Background(), berlinRequest())
		require.NoError(t, err)
		assert.Equal(t, []int{1, 0, 2, 3, 4, 5}, out.Order)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, mr.Keys(), 1)
}

func TestHTTPRouteSolverIgnoresCacheOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"order":[0,1,2,3,4,5]}`)
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	s := newRemote(t, srv.URL, WithCache(cache.NewRedisSolverCache(client, time.Minute)))

	out, err := s.Solve(context.Background(), berlinRequest())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, out.Order)
}

func TestNewHTTPRouteSolverValidates(t *testing.T) {
	_, err := NewHTTPRouteSolver("", "http://x")
	assert.Error(t, err)

	_, err = NewHTTPRouteSolver("x", " ")
	assert.Error(t, err)
}
