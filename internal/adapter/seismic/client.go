package seismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/observability"
)

const (
	endpointListEvents   = "list_events"
	endpointEventDetail  = "event_detail"
	endpointListClusters = "list_clusters"

	// maxErrorBody caps how much of an error response is copied into the error message.
	maxErrorBody = 512
)

// Client reads earthquakes and hotspot clusters from the GeoSight REST API.
// It does not retry and does not cache; callers own both concerns.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an API client rooted at baseURL, e.g. "http://localhost:8080/api".
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ListEvents returns every earthquake summary the backend knows about.
func (c *Client) ListEvents(ctx context.Context) ([]domain.EventSummary, error) {
	var events []domain.EventSummary
	if err := c.getJSON(ctx, c.baseURL+"/earthquakes", endpointListEvents, &events); err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == "" {
			c.observe(endpointListEvents, "decode_error")
			return nil, fmt.Errorf("%w: list events: record %d has no id", domain.ErrDecode, i)
		}
	}
	c.observe(endpointListEvents, "success")
	if events == nil {
		events = []domain.EventSummary{}
	}
	return events, nil
}

// GetEventDetail returns the detail record for one earthquake. It returns an
// error matching domain.ErrNotFound when the backend has no such id.
func (c *Client) GetEventDetail(ctx context.Context, id string) (domain.EventDetail, error) {
	var detail domain.EventDetail
	u := c.baseURL + "/earthquakes/" + url.PathEscape(id)
	if err := c.getJSON(ctx, u, endpointEventDetail, &detail); err != nil {
		return domain.EventDetail{}, err
	}
	if detail.ID == "" {
		// The backend answers 200 with a null body when the lookup yields nothing.
		c.observe(endpointEventDetail, "not_found")
		return domain.EventDetail{}, fmt.Errorf("%w: earthquake %q", domain.ErrNotFound, id)
	}
	c.observe(endpointEventDetail, "success")
	return detail, nil
}

// ListClusters returns every precomputed hotspot cluster.
func (c *Client) ListClusters(ctx context.Context) ([]domain.ClusterSummary, error) {
	var clusters []domain.ClusterSummary
	if err := c.getJSON(ctx, c.baseURL+"/earthquake_clusters", endpointListClusters, &clusters); err != nil {
		return nil, err
	}
	c.observe(endpointListClusters, "success")
	if clusters == nil {
		clusters = []domain.ClusterSummary{}
	}
	return clusters, nil
}

// getJSON issues a GET and decodes the body into out. Failures are recorded
// in metrics here; success is recorded by the caller after shape checks.
func (c *Client) getJSON(ctx context.Context, fullURL, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.observe(endpoint, "network_error")
		return fmt.Errorf("%w: %s request: %w", domain.ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && endpoint == endpointEventDetail {
		c.observe(endpoint, "not_found")
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fullURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.observe(endpoint, "network_error")
		return fmt.Errorf("%w: seismic API error: status %d: %s", domain.ErrNetwork, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) && endpoint == endpointEventDetail {
			c.observe(endpoint, "not_found")
			return fmt.Errorf("%w: %s: empty body", domain.ErrNotFound, fullURL)
		}
		if ctxErr := ctx.Err(); ctxErr != nil || isTimeout(err) {
			c.observe(endpoint, "network_error")
			return fmt.Errorf("%w: %s read body: %w", domain.ErrNetwork, endpoint, err)
		}
		c.observe(endpoint, "decode_error")
		return fmt.Errorf("%w: %s response: %w", domain.ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint, outcome string) {
	c.metrics.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	if outcome != "success" {
		c.logger.Debug("seismic API request failed", "endpoint", endpoint, "outcome", outcome)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// CheckReadiness reports whether the backend answers at all. Any response
// below 500 counts as reachable.
func (c *Client) CheckReadiness(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/earthquake_clusters", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: readiness probe: %w", domain.ErrNetwork, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: readiness probe: status %d", domain.ErrNetwork, resp.StatusCode)
	}
	return nil
}
