package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"prepcoach/internal/config"
	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 10 << 20

// messagePaths locate a human-readable error message in a 4xx body
var messagePaths = []string{"message", "error.message", "error", "detail", "data.message", "errors[0].message"}

// Options configures a Client
type Options struct {
	Config config.APIConfig
	// Session restores a previously saved token and cookies
	Session *Session
	// Transport overrides the base transport, mainly for tests
	Transport http.RoundTripper
	Logger    *errors.Logger
	Observer  Observer
	// OnSessionChange is called after login, refresh or logout changes credentials
	OnSessionChange func(Session)
}

// Client talks to the career-prep backend. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	breaker   *CircuitBreaker
	limiter   *LimiterManager
	logger    *errors.Logger
	observer  Observer
	onSession func(Session)
	jar       *sessionJar

	authMu  sync.RWMutex
	token   string
	authGen uint64
	user    *types.User
	refresh singleflight.Group
}

// Request describes one backend call
type Request struct {
	// Name labels the call in logs and metrics, e.g. "interview.answer"
	Name      string
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Multipart *Multipart
	// NoRefresh disables the 401 refresh-and-retry, used by the auth endpoints
	NoRefresh bool
}

// FormField is one text part of a multipart body
type FormField struct {
	Name  string
	Value string
}

// Multipart is a multipart/form-data body with an optional file part
type Multipart struct {
	Fields    []FormField
	FileField string
	FileName  string
	Content   []byte
}

// Response is a successful backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Data is the decoded JSON body, nil when the body is empty or not JSON
	Data any
}

// NewClient creates a Client from configuration
func NewClient(opts Options) (*Client, error) {
	cfg := opts.Config
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid API base URL", err).
			WithContext("base_url", cfg.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		tlsConfig, err := cfg.TLS.BuildClientTLS()
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid client TLS configuration", err)
		}
		baseTransport := http.DefaultTransport.(*http.Transport).Clone()
		if tlsConfig != nil {
			baseTransport.TLSClientConfig = tlsConfig
		}
		transport = baseTransport
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "cannot create cookie jar", err)
	}

	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(transport),
		},
		userAgent: cfg.UserAgent,
		breaker:   NewCircuitBreaker(cfg.CircuitBreaker, opts.Logger, observer),
		limiter:   NewLimiterManager(cfg.RateLimit, opts.Logger, observer),
		logger:    opts.Logger,
		observer:  observer,
		onSession: opts.OnSessionChange,
		jar:       jar,
	}

	if opts.Session != nil {
		c.restoreSession(*opts.Session)
	}
	return c, nil
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Breaker exposes the circuit breaker for health reporting
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// Limiter exposes the request limiter for health reporting
func (c *Client) Limiter() *LimiterManager {
	return c.limiter
}

// Do sends a request. A 401 triggers one shared token refresh and a single
// retry; any other non-2xx status is returned as a typed error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	contentType, body, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	token, generation := c.credentials()
	resp, err := c.send(ctx, req, contentType, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.NoRefresh {
		c.logger.Debug("Request unauthorized, refreshing session", "request", req.Name)
		if err := c.refreshAfter(ctx, generation); err != nil {
			return nil, err
		}
		token, _ = c.credentials()
		resp, err = c.send(ctx, req, contentType, body, token)
		if err != nil {
			return nil, err
		}
	}

	if err := classifyStatus(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// send performs one throttled, breaker-guarded round trip
func (c *Client) send(ctx context.Context, req Request, contentType string, body []byte, token string) (*Response, error) {
	if err := c.limiter.Wait(ctx, endpointGroup(req.Path)); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.roundTrip(ctx, req, contentType, body, token)
	})
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.observer.RequestFinished(ctx, req.Name, req.Method, status, time.Since(start), err)

	var serverErr *serverStatusError
	if stderrors.As(err, &serverErr) {
		// 5xx responses are returned by roundTrip so the breaker sees them;
		// classification happens in Do
		return resp, nil
	}
	if err != nil {
		c.logger.LogError(err, "Request failed", "request", req.Name, "path", req.Path)
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req Request, contentType string, body []byte, token string) (*Response, error) {
	target := c.resolve(req.Path, req.Query)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "cannot build request", err).
			WithContext("path", req.Path)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkFailure, "failed to read server response", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
		Data:       decodeJSON(raw),
	}
	if httpResp.StatusCode >= 500 {
		return resp, &serverStatusError{status: httpResp.StatusCode}
	}
	return resp, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// classifyStatus maps a non-2xx response to the error taxonomy
func classifyStatus(req Request, resp *Response) error {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	message := LocateString(resp.Data, messagePaths...)
	if message == "" {
		message = http.StatusText(status)
	}

	var err *errors.AppError
	switch {
	case status == http.StatusUnauthorized:
		err = errors.NewAuthError(errors.ErrCodeUnauthorized, "your session has expired, please log in again", nil)
	case status == http.StatusTooManyRequests:
		err = errors.NewNetworkError(errors.ErrCodeRateLimited, "the server is rate limiting requests, try again shortly", nil)
	case status >= 500:
		err = errors.NewNetworkError(errors.ErrCodeServerError, fmt.Sprintf("server error (%d), try again", status), nil)
	default:
		err = errors.NewAPIError(errors.ErrCodeClientError, message, nil)
	}
	return err.WithContext("status", status).WithContext("request", req.Name)
}

// StatusOf returns the HTTP status recorded on an error, or 0
func StatusOf(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return 0
	}
	status, _ := appErr.Context["status"].(int)
	return status
}

func transportError(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return errors.NewNetworkError(errors.ErrCodeNetworkFailure, "request cancelled", err)
	}
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "the server took too long to respond", err)
	}
	return errors.NewNetworkError(errors.ErrCodeNetworkFailure, "cannot reach the server", err)
}

// encodeBody renders the request body once so a retry can resend it
func encodeBody(req Request) (string, []byte, error) {
	switch {
	case req.Multipart != nil:
		return encodeMultipart(req.Multipart)
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return "", nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "cannot encode request body", err).
				WithContext("request", req.Name)
		}
		return "application/json", data, nil
	default:
		return "", nil, nil
	}
}

func encodeMultipart(m *Multipart) (string, []byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range m.Fields {
		if field.Value == "" {
			continue
		}
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return "", nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "cannot encode form field", err)
		}
	}
	if m.FileField != "" {
		part, err := writer.CreateFormFile(m.FileField, m.FileName)
		if err != nil {
			return "", nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "cannot encode file", err)
		}
		if _, err := part.Write(m.Content); err != nil {
			return "", nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "cannot encode file", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "cannot finish multipart body", err)
	}
	return writer.FormDataContentType(), buf.Bytes(), nil
}

func decodeJSON(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}

// endpointGroup is the first path segment, used as the throttle key
func endpointGroup(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		return trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
