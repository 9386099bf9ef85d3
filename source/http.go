package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/carbonlens/record"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 10 * time.Second

// HTTPClient talks to the emissions backend:
//
//	GET  /data-raw        → {"raw_data": [...]}
//	GET  /data?limit=N    → {"predictions": [...]}
//	POST /predict         → {"prediction_CO2": x}
type HTTPClient struct {
	base string
	h    *http.Client
	obs  FetchObserver
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.h.Timeout = d
		}
	}
}

// WithObserver reports request durations and failures.
func WithObserver(obs FetchObserver) ClientOption {
	return func(c *HTTPClient) { c.obs = obs }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if h != nil {
			c.h = h
		}
	}
}

// NewHTTPClient creates a client for the backend rooted at base.
func NewHTTPClient(base string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		base: strings.TrimRight(base, "/"),
		h:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rawEnvelope struct {
	RawData []record.RawRecord `json:"raw_data"`
}

type predictionsEnvelope struct {
	Predictions []Prediction `json:"predictions"`
}

type predictResponse struct {
	PredictionCO2 *float64 `json:"prediction_CO2"`
}

// FetchRecords retrieves the full raw record set.
func (c *HTTPClient) FetchRecords(ctx context.Context) ([]record.RawRecord, error) {
	var env rawEnvelope
	check := func() error {
		if env.RawData == nil {
			return fmt.Errorf("%w: /data-raw response without raw_data", ErrMalformedPayload)
		}
		return nil
	}
	if err := c.do(ctx, http.MethodGet, "/data-raw", nil, nil, &env, check); err != nil {
		return nil, err
	}
	return env.RawData, nil
}

// FetchPredictions retrieves the most recent limit predictions.
func (c *HTTPClient) FetchPredictions(ctx context.Context, limit int) ([]Prediction, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var env predictionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/data", q, nil, &env, nil); err != nil {
		return nil, err
	}
	if env.Predictions == nil {
		return []Prediction{}, nil
	}
	return env.Predictions, nil
}

// Predict submits one input and returns the predicted CO2 in tonnes.
func (c *HTTPClient) Predict(ctx context.Context, in PredictionInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, fmt.Errorf("invalid prediction input: %w", err)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal prediction input: %w", err)
	}
	var resp predictResponse
	check := func() error {
		if resp.PredictionCO2 == nil {
			return fmt.Errorf("%w: /predict response without prediction_CO2", ErrMalformedPayload)
		}
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/predict", nil, body, &resp, check); err != nil {
		return 0, err
	}
	return *resp.PredictionCO2, nil
}

// do performs one request and decodes the JSON body into out. check, when
// set, validates the decoded envelope before the request is reported.
func (c *HTTPClient) do(ctx context.Context, method, path string, q url.Values, body []byte, out any, check func() error) (err error) {
	start := time.Now()
	defer func() {
		if c.obs != nil {
			c.obs.SourceRequest(path, time.Since(start), err == nil)
		}
	}()

	u, err := url.Parse(c.base + path)
	if err != nil {
		return fmt.Errorf("source url: %w", err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedPayload, method, path, err)
	}
	if check != nil {
		return check()
	}
	return nil
}
