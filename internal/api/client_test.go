package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prepcoach/internal/config"
	"prepcoach/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPIConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		UserAgent: "prepcoach-test",
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{Config: testAPIConfig(srv.URL + "/api")})
	require.NoError(t, err)
	return client, srv
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(Options{Config: config.APIConfig{BaseURL: "not a url"}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestDoSendsHeadersAndDecodesJSON(t *testing.T) {
	var got *http.Request
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"ok": true}})
	}))
	client.restoreSession(Session{Token: "tok-1"})

	resp, err := client.Do(context.Background(), Request{Name: "test", Method: http.MethodGet, Path: "/ping"})
	require.NoError(t, err)

	assert.Equal(t, "/api/ping", got.URL.Path)
	assert.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
	assert.Equal(t, "prepcoach-test", got.Header.Get("User-Agent"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	ok, found := Locate(resp.Data, "data.ok")
	assert.True(t, found)
	assert.Equal(t, true, ok)
}

func TestDoClassifiesStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantType errors.ErrorType
		wantCode string
		wantMsg  string
	}{
		{
			name:     "client error carries server message",
			status:   http.StatusBadRequest,
			body:     map[string]any{"detail": "job role is too long"},
			wantType: errors.ErrorTypeAPI,
			wantCode: errors.ErrCodeClientError,
			wantMsg:  "job role is too long",
		},
		{
			name:     "nested message",
			status:   http.StatusUnprocessableEntity,
			body:     map[string]any{"error": map[string]any{"message": "bad answer"}},
			wantType: errors.ErrorTypeAPI,
			wantCode: errors.ErrCodeClientError,
			wantMsg:  "bad answer",
		},
		{
			name:     "client error without body uses status text",
			status:   http.StatusNotFound,
			wantType: errors.ErrorTypeAPI,
			wantCode: errors.ErrCodeClientError,
			wantMsg:  "Not Found",
		},
		{
			name:     "server error",
			status:   http.StatusBadGateway,
			wantType: errors.ErrorTypeNetwork,
			wantCode: errors.ErrCodeServerError,
		},
		{
			name:     "throttled",
			status:   http.StatusTooManyRequests,
			wantType: errors.ErrorTypeNetwork,
			wantCode: errors.ErrCodeRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			}))

			_, err := client.Do(context.Background(), Request{Name: "test", Method: http.MethodGet, Path: "/x"})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, tt.status, StatusOf(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errors.UserMessage(err))
			}
		})
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(Options{Config: testAPIConfig(baseURL)})
	require.NoError(t, err)

	_, err = client.Do(context.Background(), Request{Name: "test", Method: http.MethodGet, Path: "/x"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	assert.True(t, errors.HasCode(err, errors.ErrCodeNetworkFailure))
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	var refreshes, calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "fresh"})
	})
	mux.HandleFunc("GET /api/thing", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": 1})
	})

	client, _ := newTestClient(t, mux)
	client.restoreSession(Session{Token: "stale"})

	resp, err := client.Do(context.Background(), Request{Name: "thing", Method: http.MethodGet, Path: "/thing"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "fresh", client.Session().Token)
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	var refreshes atomic.Int32
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"token": "fresh"}})
	})
	mux.HandleFunc("GET /api/thing", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": 1})
	})

	client, _ := newTestClient(t, mux)
	client.restoreSession(Session{Token: "stale"})

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Do(context.Background(), Request{Name: "thing", Method: http.MethodGet, Path: "/thing"})
			errs <- err
		}()
	}

	// let every caller hit the 401 before the refresh completes
	require.Eventually(t, func() bool { return refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestFailedRefreshSurfacesAuthError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /api/thing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.Do(context.Background(), Request{Name: "thing", Method: http.MethodGet, Path: "/thing"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
	assert.True(t, errors.HasCode(err, errors.ErrCodeRefreshFailed))
}

func TestUnauthorizedAfterRefreshIsAuthError(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"token": "still-bad"})
	})
	mux.HandleFunc("GET /api/thing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.Do(context.Background(), Request{Name: "thing", Method: http.MethodGet, Path: "/thing"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cfg := testAPIConfig(srv.URL)
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.5,
	}
	client, err := NewClient(Options{Config: cfg})
	require.NoError(t, err)

	for range 3 {
		_, err := client.Do(context.Background(), Request{Name: "x", Method: http.MethodGet, Path: "/x"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeServerError))
	}
	assert.False(t, client.Breaker().IsHealthy())

	_, err = client.Do(context.Background(), Request{Name: "x", Method: http.MethodGet, Path: "/x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeCircuitOpen))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	cfg := testAPIConfig(srv.URL)
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	client, err := NewClient(Options{Config: cfg})
	require.NoError(t, err)

	for range 5 {
		_, _ = client.Do(context.Background(), Request{Name: "x", Method: http.MethodGet, Path: "/x"})
	}
	assert.True(t, client.Breaker().IsHealthy())
}

func TestNilBreakerAndLimiter(t *testing.T) {
	var cb *CircuitBreaker
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, false, cb.GetStats()["enabled"])

	var lm *LimiterManager
	assert.NoError(t, lm.Wait(context.Background(), "any"))
	assert.Equal(t, false, lm.GetStats()["enabled"])
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	lm := NewLimiterManager(config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1}, nil, nil)
	require.NotNil(t, lm)

	require.NoError(t, lm.Wait(context.Background(), "resume"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := lm.Wait(ctx, "resume")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRateLimited))

	// other groups have their own bucket
	assert.NoError(t, lm.Wait(context.Background(), "interview"))
	assert.Equal(t, 2, lm.GetStats()["active_limiters"])
}

func TestEndpointGroup(t *testing.T) {
	assert.Equal(t, "interview", endpointGroup("/interview/abc/answer"))
	assert.Equal(t, "jobs", endpointGroup("jobs/search"))
	assert.Equal(t, "quiz", endpointGroup("/quiz"))
	assert.Equal(t, "root", endpointGroup("/"))
}
