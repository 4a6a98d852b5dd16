package condusef

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"redeco/internal/platform/metrics"
)

// ReuneClient calls the REUNE API host (bulk query submission). It is a
// separate host with its own auth convention: the token goes in the
// Authorization header exactly as given, without Bearer normalization.
type ReuneClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// ReuneOption configures the ReuneClient.
type ReuneOption func(*ReuneClient)

// WithReuneHTTPClient sets a custom HTTP client (for testing).
func WithReuneHTTPClient(hc *http.Client) ReuneOption {
	return func(c *ReuneClient) {
		c.httpClient = hc
	}
}

// WithReuneMetrics enables per-endpoint call counters and latency histograms.
func WithReuneMetrics(m *metrics.Metrics) ReuneOption {
	return func(c *ReuneClient) {
		c.metrics = m
	}
}

// NewReune creates a REUNE API client for the given base URL.
func NewReune(baseURL string, opts ...ReuneOption) *ReuneClient {
	c := &ReuneClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tracer:     otel.Tracer("redeco/condusef"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitBulkQuery POSTs a JSON array of query records to consultas/general.
// Gateway-level statuses get fixed user-facing messages; other errors go
// through the shared message extraction policy.
func (c *ReuneClient) SubmitBulkQuery(ctx context.Context, token string, body any) (any, error) {
	began := time.Now()
	ctx, span := c.tracer.Start(ctx, "condusef.submit_bulk_query")
	var retErr error
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
		}
		span.End()
		if c.metrics != nil {
			outcome := "ok"
			if retErr != nil {
				outcome = "error"
			}
			c.metrics.RemoteCalls.WithLabelValues("reune/consultas/general", outcome).Inc()
			c.metrics.RemoteCallDuration.WithLabelValues("reune/consultas/general").Observe(time.Since(began).Seconds())
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		retErr = &APIError{Message: "failed to encode query body", Err: err}
		return nil, retErr
	}

	u := c.baseURL + "/reune/consultas/general"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		retErr = &APIError{Message: "failed to create request", Err: err}
		return nil, retErr
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			retErr = &APIError{Message: "Timeout al conectar con la API REUNE. El servidor no respondió a tiempo. Por favor, intenta nuevamente en unos minutos.", Err: err}
		} else {
			retErr = &APIError{Message: fmt.Sprintf("Error de conexión con la API REUNE. Verifica que la URL sea correcta y que el servidor esté disponible. URL intentada: %s", u), Err: err}
		}
		return nil, retErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		retErr = &APIError{Message: "failed to read API response", Err: err}
		return nil, retErr
	}

	switch resp.StatusCode {
	case http.StatusBadGateway:
		retErr = apiErr(resp.StatusCode, "Error 502 Bad Gateway: El servidor REUNE no está disponible temporalmente. Por favor, intenta nuevamente más tarde.")
		return nil, retErr
	case http.StatusServiceUnavailable:
		retErr = apiErr(resp.StatusCode, "Error 503 Service Unavailable: El servidor REUNE está temporalmente fuera de servicio. Por favor, intenta nuevamente más tarde.")
		return nil, retErr
	case http.StatusGatewayTimeout:
		retErr = apiErr(resp.StatusCode, "Error 504 Gateway Timeout: El servidor REUNE tardó demasiado en responder. Por favor, intenta nuevamente.")
		return nil, retErr
	case http.StatusUnauthorized:
		retErr = apiErr(resp.StatusCode, "Error 401 Unauthorized: Token inválido o expirado. Genera un nuevo token desde la página principal.")
		return nil, retErr
	case http.StatusForbidden:
		retErr = apiErr(resp.StatusCode, "Error 403 Forbidden: No tienes permisos para acceder a este recurso.")
		return nil, retErr
	}

	if resp.StatusCode >= 400 {
		retErr = errorFromResponse(resp.StatusCode, respBody)
		return nil, retErr
	}

	var data any
	if err := json.Unmarshal(respBody, &data); err != nil {
		retErr = apiErr(resp.StatusCode, "La API REUNE no retornó un JSON válido en la respuesta")
		return nil, retErr
	}
	return data, nil
}
