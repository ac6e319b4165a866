package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	"golang.org/x/time/rate"
)

// Fetcher implements service.HTTPFetcher
type Fetcher struct {
	client          *http.Client
	limiter         *rate.Limiter
	maxResponseSize int64
	userAgent       string
}

// Config holds HTTP fetcher configuration
type Config struct {
	Timeout           time.Duration
	MaxResponseSize   int64
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	// Transport overrides the default transport, mostly for tests
	Transport http.RoundTripper
}

// DefaultUserAgent identifies the prober to site operators
const DefaultUserAgent = "Mozilla/5.0 (compatible; DomainPrioritizer/1.0)"

// NewFetcher creates a new HTTP fetcher
func NewFetcher(config Config) *Fetcher {
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = 2 << 20
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		limiter:         limiter,
		maxResponseSize: config.MaxResponseSize,
		userAgent:       config.UserAgent,
	}
}

// Fetch implements service.HTTPFetcher
func (f *Fetcher) Fetch(ctx context.Context, url string) (*service.HTTPResponse, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Limit response size
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	contentLength := resp.ContentLength
	if contentLength < 0 {
		contentLength = int64(len(body))
	}

	return &service.HTTPResponse{
		URL:           resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		Body:          body,
		ContentLength: contentLength,
		Elapsed:       time.Since(start),
	}, nil
}
