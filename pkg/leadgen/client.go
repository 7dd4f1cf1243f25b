package leadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client errors.
var (
	// ErrAborted reports cooperative cancellation of an in-flight
	// request. It is not a server failure and is normally swallowed by
	// the caller, not shown to the user.
	ErrAborted = errors.New("leadgen: aborted")

	// ErrServer reports a non-retryable backend failure.
	ErrServer = errors.New("leadgen: server error")
)

const (
	defaultRetries = 2
	defaultBackoff = time.Second
)

// Client calls the leads and pitch endpoints.
type Client struct {
	// BaseURL is the API root, e.g. "https://recon.example.com".
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Retries is the number of retries on transient failures (429, 5xx,
	// network errors). Default 2.
	Retries int

	// Backoff is the initial retry delay, doubled per attempt. Default 1s.
	Backoff time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// FindLeads runs a discovery, lookup, or jobs search. Cancelling ctx
// aborts the request and returns ErrAborted.
func (c *Client) FindLeads(ctx context.Context, params SearchParams) (*SearchResult, error) {
	var result SearchResult
	if err := c.post(ctx, "/api/leads", params, &result); err != nil {
		return nil, err
	}
	if result.Leads == nil {
		result.Leads = []Company{}
	}
	if result.Sources == nil {
		result.Sources = []Source{}
	}
	return &result, nil
}

// GeneratePitch generates outreach message variations for one company.
func (c *Client) GeneratePitch(ctx context.Context, params PitchParams) ([]Pitch, error) {
	var result PitchResult
	if err := c.post(ctx, "/api/pitch", params, &result); err != nil {
		return nil, err
	}
	return result.Pitches, nil
}

// post sends one JSON request with retry on transient failures.
func (c *Client) post(ctx context.Context, path string, params, result any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retries := c.Retries
	if retries == 0 {
		retries = defaultRetries
	}
	backoff := c.Backoff
	if backoff == 0 {
		backoff = defaultBackoff
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("leadgen: encode request: %w", err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path

	for attempt := 0; ; attempt++ {
		status, err := c.doOnce(ctx, httpClient, url, body, result)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
		if attempt >= retries || !isTransient(status, err) {
			return err
		}
		logger.Warn("leadgen: request failed, retrying",
			"path", path, "attempt", attempt+1, "backoff", backoff, "err", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// doOnce performs a single request attempt. The returned status code is 0
// for network-level failures.
func (c *Client) doOnce(ctx context.Context, httpClient *http.Client, url string, body []byte, result any) (status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("leadgen: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("leadgen: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("leadgen: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The backend returns {"error": ...} on failure; fall back to a
		// readable message when it returns plain text instead.
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			return resp.StatusCode, fmt.Errorf("%w: %s (status %d)", ErrServer, envelope.Error, resp.StatusCode)
		}
		msg := strings.TrimSpace(string(data))
		if len(msg) > 100 {
			msg = msg[:100]
		}
		return resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: malformed response: %v", ErrServer, err)
	}
	return resp.StatusCode, nil
}

// isTransient reports whether a failed attempt is worth retrying.
func isTransient(status int, err error) bool {
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	// Network-level failures have no status.
	return status == 0 && !errors.Is(err, ErrServer)
}
