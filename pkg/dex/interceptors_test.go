package dex_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

var errRejected = errors.New("rejected")

type recordingLogger struct {
	dex.NoopLogger

	mu     sync.Mutex
	debugs []string
	errors []string
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errors = append(l.errors, msg)
}

func TestInterceptorChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chain := dex.NewInterceptorChain()
	chain.AddRequestInterceptor(dex.RequestIDInterceptor())
	chain.AddRequestInterceptor(dex.HeaderInterceptor(map[string]string{"Accept": "application/json"}))

	other := dex.NewInterceptorChain()
	other.AddRequestInterceptor(func(ctx context.Context, req *dex.Request) error {
		if req.Path == "/forbidden" {
			return errRejected
		}

		return nil
	})
	chain.Merge(other)

	req := &dex.Request{Method: http.MethodGet, Path: "/pokemon"}
	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	assert.NotEmpty(t, req.Headers.Get(dex.RequestIDHeader))
	assert.Equal(t, "application/json", req.Headers.Get("Accept"))

	preset := &dex.Request{Path: "/pokemon", Headers: http.Header{dex.RequestIDHeader: []string{"fixed"}}}
	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, preset))
	assert.Equal(t, "fixed", preset.Headers.Get(dex.RequestIDHeader))

	err := chain.ExecuteRequestInterceptors(ctx, &dex.Request{Path: "/forbidden"})
	require.ErrorIs(t, err, errRejected)
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := &recordingLogger{}
	req := &dex.Request{Method: http.MethodGet, Path: "/pokemon/1", Headers: http.Header{}}

	require.NoError(t, dex.LoggingInterceptor(logger)(ctx, req))
	require.NoError(t, dex.LoggingResponseInterceptor(logger)(ctx, req, &dex.Response{StatusCode: 200}))
	require.NoError(t, dex.LoggingResponseInterceptor(logger)(ctx, req, &dex.Response{StatusCode: 500, Error: errRejected}))

	assert.Equal(t, []string{"API Request", "API Response"}, logger.debugs)
	assert.Equal(t, []string{"API Response Error"}, logger.errors)
}

func TestMetricsInterceptors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	collector := dex.NewMetricsCollector()
	onRequest := dex.MetricsRequestInterceptor(collector)
	onResponse := dex.MetricsResponseInterceptor(collector)

	record := func(path string, status int) {
		req := &dex.Request{Method: http.MethodGet, Path: path}
		require.NoError(t, onRequest(ctx, req))
		require.NoError(t, onResponse(ctx, req, &dex.Response{StatusCode: status}))
	}

	record("/pokemon/1", 200)
	record("/pokemon/2", 200)
	record("/pokemon?limit=20&offset=0", 200)
	record("/type/fire", 404)

	snapshot := collector.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, int64(3), snapshot["GET /pokemon"].TotalRequests)
	assert.Equal(t, int64(1), snapshot["GET /type"].TotalErrors)

	total := collector.Total()
	assert.Equal(t, int64(4), total.TotalRequests)
	assert.Equal(t, int64(1), total.TotalErrors)
	assert.False(t, total.LastRequestTime.IsZero())
}
