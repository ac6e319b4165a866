package service

import (
	"context"
	"net/http"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
)

// DomainNormalizer canonicalizes raw URLs and domain strings
type DomainNormalizer interface {
	// Normalize returns the canonical domain key or an *entity.InvalidDomainError
	Normalize(input string) (string, error)
	// RootDomain returns the registrable domain (eTLD+1), or the input when unknown
	RootDomain(domain string) string
}

// ProbeOptions bounds a single probe call
type ProbeOptions struct {
	Timeout time.Duration
	Retries int
}

// PlatformDetection is one platform candidate reported by a prober
type PlatformDetection struct {
	Platform   entity.PlatformType `json:"platform"`
	Confidence float64             `json:"confidence"`
	Evidence   []string            `json:"evidence"`
}

// PlatformResult is the outcome of probing one domain for its platform
type PlatformResult struct {
	Domain         string              `json:"domain"`
	Detections     []PlatformDetection `json:"detections"`
	ResponseTimeMs *int64              `json:"response_time_ms,omitempty"`
	StatusCode     *int                `json:"status_code,omitempty"`
	ContentLength  *int64              `json:"content_length,omitempty"`
}

// BusinessResult is the outcome of scoring one domain for business quality
type BusinessResult struct {
	Domain             string             `json:"domain"`
	BusinessScore      float64            `json:"business_score"`
	WebsiteType        entity.WebsiteType `json:"website_type"`
	PositiveIndicators []string           `json:"positive_indicators"`
	NegativeIndicators []string           `json:"negative_indicators"`
	IndustryHints      []string           `json:"industry_hints"`
	ResponseTimeMs     *int64             `json:"response_time_ms,omitempty"`
	StatusCode         *int               `json:"status_code,omitempty"`
	ContentLength      *int64             `json:"content_length,omitempty"`
}

// PlatformProber supplies platform signals for a domain.
// Implementations must be idempotent and honor opts.Timeout.
type PlatformProber interface {
	ProbePlatform(ctx context.Context, domain string, opts ProbeOptions) (*PlatformResult, error)
}

// BusinessScorer supplies business-quality signals for a domain.
// Implementations must be idempotent and honor opts.Timeout.
type BusinessScorer interface {
	ScoreBusiness(ctx context.Context, domain string, platform entity.PlatformType, opts ProbeOptions) (*BusinessResult, error)
}

// HTTPFetcher fetches web content
type HTTPFetcher interface {
	// Fetch fetches a URL and returns the response
	Fetch(ctx context.Context, url string) (*HTTPResponse, error)
}

// HTTPResponse represents an HTTP response
type HTTPResponse struct {
	URL           string
	StatusCode    int
	Headers       http.Header
	Body          []byte
	ContentLength int64
	Elapsed       time.Duration
}

// DNSResolver resolves domain names
type DNSResolver interface {
	// Resolve resolves a domain to IP addresses
	Resolve(ctx context.Context, domain string) ([]string, error)
}
