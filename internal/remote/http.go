package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
)

const (
	maxBodyBytes    = 8 << 20
	requestIDHeader = "X-Request-Id"
)

// httpGetter performs the GETs shared by the HTTP sources.
type httpGetter struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func newHTTPGetter(url string, timeout time.Duration, log *zap.Logger) httpGetter {
	if log == nil {
		log = zap.NewNop()
	}
	return httpGetter{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (g httpGetter) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", g.url, err)
	}
	req.Header.Set("Accept", "application/json")

	requestID := ""
	if id, err := uuid.NewV4(); err == nil {
		requestID = id.String()
		req.Header.Set(requestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", g.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", g.url, err)
	}

	g.log.Debug("fetched",
		zap.String("url", g.url),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, g.url, resp.StatusCode)
	}
	return body, nil
}

// HTTPSource reads the agent snapshot from a REST endpoint.
type HTTPSource struct {
	getter httpGetter
}

// NewHTTPSource creates a snapshot source for url.
// timeout bounds a whole request, body included.
func NewHTTPSource(url string, timeout time.Duration, log *zap.Logger) *HTTPSource {
	return &HTTPSource{getter: newHTTPGetter(url, timeout, log)}
}

// FetchSnapshot GETs and validates the snapshot.
func (s *HTTPSource) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	body, err := s.getter.get(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(body)
}

// HTTPParamsSource reads flock params from a REST endpoint.
type HTTPParamsSource struct {
	getter httpGetter
}

// NewHTTPParamsSource creates a params source for url.
func NewHTTPParamsSource(url string, timeout time.Duration, log *zap.Logger) *HTTPParamsSource {
	return &HTTPParamsSource{getter: newHTTPGetter(url, timeout, log)}
}

// FetchParams GETs and validates the params.
func (s *HTTPParamsSource) FetchParams(ctx context.Context) (flock.Params, error) {
	body, err := s.getter.get(ctx)
	if err != nil {
		return flock.Params{}, err
	}
	return DecodeParams(body)
}
