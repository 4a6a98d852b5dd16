package condusef

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"redeco/internal/platform/metrics"
)

const (
	readTimeout      = 10 * time.Second
	bulkTimeout      = 15 * time.Second
	complaintTimeout = 20 * time.Second

	bearerPrefix = "Bearer "
)

// Client calls the REDECO API host (auth, catalogs, complaint submission).
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics enables per-endpoint call counters and latency histograms.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a REDECO API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tracer:     otel.Tracer("redeco/condusef"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges credentials for an access token.
// The upstream token endpoint expects GET with a JSON body.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	ctx, finish := c.start(ctx, "condusef.authenticate", "auth/users/token")
	var retErr error
	defer func() { finish(retErr) }()

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		retErr = &APIError{Message: "failed to encode credentials", Err: err}
		return "", retErr
	}

	status, respBody, err := c.roundTrip(ctx, http.MethodGet, c.baseURL+"/auth/users/token/", nil, bytes.NewReader(body))
	if err != nil {
		retErr = transportError(ctx, "REDECO", err)
		return "", retErr
	}
	if status >= 400 {
		retErr = errorFromResponse(status, respBody)
		return "", retErr
	}

	var data any
	if err := json.Unmarshal(respBody, &data); err != nil {
		retErr = apiErr(status, "API did not return JSON")
		return "", retErr
	}

	obj, _ := data.(map[string]any)
	token := extractToken(obj)
	if token == "" {
		retErr = apiErr(status, "Unable to find token in API response")
		return "", retErr
	}
	return token, nil
}

// GetPublic calls an unauthenticated REDECO endpoint and returns the parsed JSON.
func (c *Client) GetPublic(ctx context.Context, path string, query url.Values) (any, error) {
	return c.get(ctx, path, query, "")
}

// GetProtected calls a bearer-protected REDECO endpoint. The Bearer prefix is
// added to the token if not already present.
func (c *Client) GetProtected(ctx context.Context, path, token string, query url.Values) (any, error) {
	if !strings.HasPrefix(token, bearerPrefix) {
		token = bearerPrefix + token
	}
	return c.get(ctx, path, query, token)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, authorization string) (any, error) {
	endpoint := strings.Trim(path, "/")
	ctx, finish := c.start(ctx, "condusef.get", endpoint)
	var retErr error
	defer func() { finish(retErr) }()

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		retErr = &APIError{Message: "failed to create request", Err: err}
		return nil, retErr
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	status, respBody, err := c.execute(req)
	if err != nil {
		retErr = transportError(ctx, "REDECO", err)
		return nil, retErr
	}
	if status >= 400 {
		retErr = errorFromResponse(status, respBody)
		return nil, retErr
	}

	var data any
	if err := json.Unmarshal(respBody, &data); err != nil {
		retErr = apiErr(status, "API did not return JSON")
		return nil, retErr
	}
	return data, nil
}

// SubmitComplaint POSTs a complaint record built by the payload builder.
// 200/201 is success; a non-JSON success body yields a synthetic marker so
// callers always get a JSON-compatible value.
func (c *Client) SubmitComplaint(ctx context.Context, token string, payload map[string]any) (any, error) {
	ctx, finish := c.start(ctx, "condusef.submit_complaint", "redeco/quejas")
	var retErr error
	defer func() { finish(retErr) }()

	ctx, cancel := context.WithTimeout(ctx, complaintTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		retErr = &APIError{Message: "failed to encode complaint payload", Err: err}
		return nil, retErr
	}

	if !strings.HasPrefix(token, bearerPrefix) {
		token = bearerPrefix + token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/redeco/quejas", bytes.NewReader(body))
	if err != nil {
		retErr = &APIError{Message: "failed to create request", Err: err}
		return nil, retErr
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	status, respBody, err := c.execute(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			retErr = &APIError{Message: "Timeout al conectar con la API REDECO. Por favor intenta nuevamente más tarde.", Err: err}
		} else {
			retErr = &APIError{Message: fmt.Sprintf("Error de conexión con la API REDECO. URL intentada: %s", c.baseURL+"/redeco/quejas"), Err: err}
		}
		return nil, retErr
	}

	if status == http.StatusOK || status == http.StatusCreated {
		var data any
		if err := json.Unmarshal(respBody, &data); err != nil {
			// Upstream occasionally answers 200 with a plain-text body.
			return map[string]any{"status": "ok", "code": status, "text": string(respBody)}, nil
		}
		return data, nil
	}

	switch status {
	case http.StatusUnauthorized:
		retErr = apiErr(status, "Error 401 Unauthorized: token inválido o expirado. Genera un nuevo token.")
	case http.StatusForbidden:
		retErr = apiErr(status, "Error 403 Forbidden: no tienes permisos para crear quejas.")
	default:
		retErr = errorFromResponse(status, respBody)
	}
	return nil, retErr
}

// roundTrip builds and executes a request with an optional body.
func (c *Client) roundTrip(ctx context.Context, method, u string, header http.Header, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, err
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.execute(req)
}

func (c *Client) execute(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// start opens a span and returns a finish func that records the outcome in
// both the span and the prometheus counters.
func (c *Client) start(ctx context.Context, opName, endpoint string) (context.Context, func(error)) {
	began := time.Now()
	ctx, span := c.tracer.Start(ctx, opName, trace.WithAttributes(
		attribute.String("condusef.endpoint", endpoint),
	))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.metrics != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			c.metrics.RemoteCalls.WithLabelValues(endpoint, outcome).Inc()
			c.metrics.RemoteCallDuration.WithLabelValues(endpoint).Observe(time.Since(began).Seconds())
		}
	}
}

// transportError classifies a failed round trip for the read paths.
func transportError(ctx context.Context, host string, err error) *APIError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &APIError{Message: fmt.Sprintf("Timeout connecting to %s API", host), Err: err}
	}
	return &APIError{Message: fmt.Sprintf("Error connecting to %s API: %v", host, err), Err: err}
}

// errorFromResponse applies the shared error policy for non-2xx statuses:
// surface a concise JSON message when present, otherwise a generic one.
func errorFromResponse(status int, body []byte) *APIError {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return apiErr(status, fmt.Sprintf("API returned %d: %s", status, truncate(string(body), 200)))
	}
	if msg := extractMessage(v); msg != "" {
		return apiErr(status, msg)
	}
	return apiErr(status, fmt.Sprintf("API returned %d", status))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
