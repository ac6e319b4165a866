// Package probe is the reference HTTP implementation of the platform and
// business capability interfaces.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	"github.com/WangYihang/Domain-Prioritizer/pkg/scoring"
)

// Prober fetches a domain's homepage and runs the scoring model over it.
// It implements both service.PlatformProber and service.BusinessScorer.
type Prober struct {
	fetcher  service.HTTPFetcher
	resolver service.DNSResolver
	model    *scoring.Model
	targets  func(domain string) []string
}

// Option configures a Prober
type Option func(*Prober)

// WithResolver enables the DNS pre-flight check
func WithResolver(resolver service.DNSResolver) Option {
	return func(p *Prober) { p.resolver = resolver }
}

// WithTargets overrides the candidate URLs fetched for a domain
func WithTargets(targets func(domain string) []string) Option {
	return func(p *Prober) { p.targets = targets }
}

// NewProber creates an HTTP prober
func NewProber(fetcher service.HTTPFetcher, model *scoring.Model, opts ...Option) *Prober {
	p := &Prober{
		fetcher: fetcher,
		model:   model,
		targets: DefaultTargets,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultTargets tries HTTPS first and falls back to plain HTTP
func DefaultTargets(domain string) []string {
	return []string{"https://" + domain + "/", "http://" + domain + "/"}
}

var (
	_ service.PlatformProber = (*Prober)(nil)
	_ service.BusinessScorer = (*Prober)(nil)
)

// ProbePlatform implements service.PlatformProber
func (p *Prober) ProbePlatform(ctx context.Context, domain string, opts service.ProbeOptions) (*service.PlatformResult, error) {
	page, resp, err := p.fetchPage(ctx, domain, opts)
	if err != nil {
		return nil, err
	}

	result := &service.PlatformResult{
		Domain:     domain,
		Detections: p.model.DetectPlatforms(page),
	}
	result.ResponseTimeMs, result.StatusCode, result.ContentLength = responseStats(resp)
	return result, nil
}

// ScoreBusiness implements service.BusinessScorer
func (p *Prober) ScoreBusiness(ctx context.Context, domain string, platform entity.PlatformType, opts service.ProbeOptions) (*service.BusinessResult, error) {
	page, resp, err := p.fetchPage(ctx, domain, opts)
	if err != nil {
		return nil, err
	}

	a := p.model.Score(page, platform)
	result := &service.BusinessResult{
		Domain:             domain,
		BusinessScore:      a.Score,
		WebsiteType:        a.WebsiteType,
		PositiveIndicators: a.Positive,
		NegativeIndicators: a.Negative,
		IndustryHints:      a.Industries,
	}
	result.ResponseTimeMs, result.StatusCode, result.ContentLength = responseStats(resp)
	return result, nil
}

func (p *Prober) fetchPage(ctx context.Context, domain string, opts service.ProbeOptions) (*scoring.Page, *service.HTTPResponse, error) {
	if p.resolver != nil {
		dnsCtx, cancel := attemptContext(ctx, opts.Timeout)
		ips, err := p.resolver.Resolve(dnsCtx, domain)
		cancel()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", entity.ErrProbeFailed, err)
		}
		if len(ips) == 0 {
			return nil, nil, fmt.Errorf("%w: %s has no A records", entity.ErrProbeFailed, domain)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", entity.ErrProbeFailed, err)
		}

		page, resp, err := p.attempt(ctx, domain, opts.Timeout)
		if err == nil {
			return page, resp, nil
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("%w: %v", entity.ErrProbeFailed, lastErr)
}

// attempt tries every target once under its own timeout
func (p *Prober) attempt(ctx context.Context, domain string, timeout time.Duration) (*scoring.Page, *service.HTTPResponse, error) {
	ctx, cancel := attemptContext(ctx, timeout)
	defer cancel()

	var lastErr error
	for _, target := range p.targets(domain) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		resp, err := p.fetcher.Fetch(ctx, target)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= http.StatusBadRequest {
			lastErr = fmt.Errorf("%s returned status %d", target, resp.StatusCode)
			continue
		}

		page, err := scoring.ParsePage(resp.URL, resp.Headers, resp.Body)
		if err != nil {
			lastErr = err
			continue
		}
		return page, resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate URL")
	}
	return nil, nil, lastErr
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func responseStats(resp *service.HTTPResponse) (*int64, *int, *int64) {
	elapsed := resp.Elapsed.Milliseconds()
	status := resp.StatusCode
	length := resp.ContentLength
	return &elapsed, &status, &length
}
