package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	"golang.org/x/sync/errgroup"
)

// RoundResult is the common outcome of a probing or scoring round
type RoundResult struct {
	Success   bool                `json:"success"`
	Error     string              `json:"error,omitempty"`
	Processed int                 `json:"processed"`
	Updated   int                 `json:"updated"`
	Failed    []entity.FailedItem `json:"failed,omitempty"`
}

// ProbeResult is returned by ProbePlatforms
type ProbeResult struct {
	RoundResult
	PlatformDistribution map[entity.PlatformType]int `json:"platform_distribution"`
}

// ScoreResult is returned by ScoreBusiness
type ScoreResult struct {
	RoundResult
	WebsiteTypeDistribution map[entity.WebsiteType]int `json:"website_type_distribution"`
}

// ProbePlatforms asks the platform prober about each domain and records the
// winning detection. A nil domains slice means every registered domain.
// Batches run concurrently up to batchSize, separated by the configured delay.
func (e *Engine) ProbePlatforms(ctx context.Context, domains []string, batchSize int) ProbeResult {
	result := ProbeResult{PlatformDistribution: map[entity.PlatformType]int{}}
	if e.platform == nil {
		result.Error = fmt.Sprintf("%s: platform prober not configured", entity.ErrProberUnavailable)
		return result
	}

	var targets []string
	result.RoundResult, targets = e.runRound(ctx, StagePlatform, domains, batchSize, e.probePlatform)
	for _, domain := range targets {
		if r, ok := e.registry.Get(domain); ok {
			result.PlatformDistribution[r.PlatformType]++
		}
	}
	return result
}

// ScoreBusiness asks the business scorer about each domain. platformTypes may
// supply the platform per domain; otherwise the recorded platform is used.
func (e *Engine) ScoreBusiness(ctx context.Context, domains []string, platformTypes map[string]entity.PlatformType, batchSize int) ScoreResult {
	result := ScoreResult{WebsiteTypeDistribution: map[entity.WebsiteType]int{}}
	if e.business == nil {
		result.Error = fmt.Sprintf("%s: business scorer not configured", entity.ErrProberUnavailable)
		return result
	}

	platforms := make(map[string]entity.PlatformType, len(platformTypes))
	for key, platform := range platformTypes {
		if domain, ok := e.registry.Resolve(key); ok {
			platforms[domain] = platform
		}
	}

	var targets []string
	result.RoundResult, targets = e.runRound(ctx, StageBusiness, domains, batchSize, func(ctx context.Context, domain string) error {
		return e.scoreBusiness(ctx, domain, platforms)
	})
	for _, domain := range targets {
		if r, ok := e.registry.Get(domain); ok {
			result.WebsiteTypeDistribution[r.WebsiteType]++
		}
	}
	return result
}

// runRound resolves the targets and processes them batch by batch
func (e *Engine) runRound(ctx context.Context, stage string, domains []string, batchSize int, process func(context.Context, string) error) (RoundResult, []string) {
	result := RoundResult{}
	if e.registry.Len() == 0 {
		result.Error = entity.ErrEmptyRegistry.Error()
		return result, nil
	}

	targets, unknown := e.resolveTargets(domains)
	result.Failed = append(result.Failed, unknown...)

	if batchSize <= 0 {
		batchSize = e.config.Probe.BatchSize
	}
	batches := (len(targets) + batchSize - 1) / batchSize

	e.metricsLock.Lock()
	e.metrics.Stage = stage
	e.metrics.BatchesDone = 0
	e.metrics.BatchesTotal = int64(batches)
	e.metricsLock.Unlock()
	e.notifyMetricsObservers()

	e.logger.Info("starting round", "stage", stage, "domains", len(targets), "batches", batches)

	var mu sync.Mutex
	for b := 0; b < batches; b++ {
		if b > 0 {
			if err := e.sleep(ctx, e.config.Probe.BatchDelay); err != nil {
				result.Error = err.Error()
				return result, targets
			}
		}
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			return result, targets
		}

		start := b * batchSize
		end := min(start+batchSize, len(targets))

		var g errgroup.Group
		g.SetLimit(batchSize)
		for _, domain := range targets[start:end] {
			g.Go(func() error {
				e.setActive(domain, true)
				err := process(ctx, domain)
				e.setActive(domain, false)
				if err != nil && ctx.Err() != nil {
					return nil
				}

				mu.Lock()
				result.Processed++
				if err != nil {
					result.Failed = append(result.Failed, entity.FailedItem{Domain: domain, Reason: err.Error()})
				} else {
					result.Updated++
				}
				mu.Unlock()

				e.domainDone(stage, domain, err)
				return nil
			})
		}
		g.Wait()
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			e.logger.Warn("round interrupted", "stage", stage, "processed", result.Processed, "batch", b+1, "of", batches)
			return result, targets
		}

		e.metricsLock.Lock()
		e.metrics.BatchesDone++
		e.metricsLock.Unlock()
		e.logger.Debug("batch done", "stage", stage, "batch", b+1, "of", batches)
		e.notifyMetricsObservers()
	}

	result.Success = true
	e.logger.Info("round finished", "stage", stage, "processed", result.Processed, "updated", result.Updated, "failed", len(result.Failed))
	return result, targets
}

// resolveTargets maps inputs onto canonical domains, dropping repeats
func (e *Engine) resolveTargets(domains []string) ([]string, []entity.FailedItem) {
	if domains == nil {
		return e.registry.Domains(), nil
	}

	var failed []entity.FailedItem
	seen := make(map[string]bool, len(domains))
	targets := make([]string, 0, len(domains))
	for _, d := range domains {
		domain, ok := e.registry.Resolve(d)
		if !ok {
			failed = append(failed, entity.FailedItem{Domain: d, Reason: "domain not registered"})
			continue
		}
		if seen[domain] {
			continue
		}
		seen[domain] = true
		targets = append(targets, domain)
	}
	return targets, failed
}

func (e *Engine) probeOptions() service.ProbeOptions {
	return service.ProbeOptions{Timeout: e.config.Probe.Timeout, Retries: e.config.Probe.Retries}
}

// callContext bounds one probe call. Retries run inside the call.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.config.Probe.Timeout
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout*time.Duration(e.config.Probe.Retries+1))
}

// probePlatform runs the platform prober for one domain
func (e *Engine) probePlatform(ctx context.Context, domain string) error {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := e.platform.ProbePlatform(callCtx, domain, e.probeOptions())
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty platform result", entity.ErrProbeFailed)
	}
	e.collectors.observeProbe(StagePlatform, err == nil, time.Since(start).Seconds())

	probedAt := e.now()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// caller stopped the round, the domain was not probed
			return ctxErr
		}
		e.markFailed(StagePlatform, domain, err, probedAt)
		return err
	}

	accessible := true
	patch := entity.Patch{
		IsAccessible:   &accessible,
		LastProbed:     &probedAt,
		ResponseTimeMs: res.ResponseTimeMs,
		StatusCode:     res.StatusCode,
		ContentLength:  res.ContentLength,
	}

	if best, ok := winningDetection(res.Detections); ok {
		platform := best.Platform
		patch.PlatformType = &platform
		patch.AppendPlatformIndicators = append([]string{fmt.Sprintf("confidence: %.2f", entity.Clamp01(best.Confidence))}, best.Evidence...)
	}

	e.registry.Update(domain, patch)
	return nil
}

// winningDetection picks the single highest-confidence known platform
func winningDetection(detections []service.PlatformDetection) (service.PlatformDetection, bool) {
	var best service.PlatformDetection
	found := false
	for _, d := range detections {
		if d.Platform == entity.PlatformUnknown || d.Platform == "" {
			continue
		}
		if !found || entity.Clamp01(d.Confidence) > entity.Clamp01(best.Confidence) {
			best = d
			found = true
		}
	}
	return best, found
}

// scoreBusiness runs the business scorer for one domain
func (e *Engine) scoreBusiness(ctx context.Context, domain string, platforms map[string]entity.PlatformType) error {
	platform, ok := platforms[domain]
	if !ok {
		if r, found := e.registry.Get(domain); found {
			platform = r.PlatformType
		} else {
			platform = entity.PlatformUnknown
		}
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := e.business.ScoreBusiness(callCtx, domain, platform, e.probeOptions())
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty business result", entity.ErrProbeFailed)
	}
	e.collectors.observeProbe(StageBusiness, err == nil, time.Since(start).Seconds())

	probedAt := e.now()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// caller stopped the round, the domain was not probed
			return ctxErr
		}
		e.markFailed(StageBusiness, domain, err, probedAt)
		return err
	}

	websiteType := res.WebsiteType
	if websiteType == "" {
		websiteType = entity.WebsiteUnknown
	}
	score := res.BusinessScore
	accessible := true

	e.registry.Update(domain, entity.Patch{
		WebsiteType:              &websiteType,
		BusinessScore:            &score,
		IsAccessible:             &accessible,
		LastProbed:               &probedAt,
		ResponseTimeMs:           res.ResponseTimeMs,
		StatusCode:               res.StatusCode,
		ContentLength:            res.ContentLength,
		AppendBusinessIndicators: res.PositiveIndicators,
		AppendNegativeIndicators: res.NegativeIndicators,
		AppendIndustryHints:      res.IndustryHints,
	})
	return nil
}

// markFailed degrades a record after a probe error
func (e *Engine) markFailed(stage, domain string, err error, at time.Time) {
	accessible := false
	e.registry.Update(domain, entity.Patch{
		IsAccessible:           &accessible,
		LastProbed:             &at,
		AppendExclusionReasons: []string{"probe_error: " + err.Error()},
	})

	e.logger.Warn("probe failed", "stage", stage, "domain", domain, "err", err)
}

func (e *Engine) setActive(domain string, active bool) {
	e.metricsLock.Lock()
	defer e.metricsLock.Unlock()
	if active {
		e.active[domain] = struct{}{}
	} else {
		delete(e.active, domain)
	}
}

func (e *Engine) domainDone(stage, domain string, err error) {
	e.metricsLock.Lock()
	switch stage {
	case StagePlatform:
		e.metrics.PlatformProbed++
	case StageBusiness:
		e.metrics.BusinessScored++
	}
	if err != nil {
		e.metrics.ErrorCount++
	}
	e.metrics.LastUpdateTime = e.now()
	e.metricsLock.Unlock()

	for _, observer := range e.metricsObservers {
		observer.OnDomainProcessed(stage, domain, err)
	}
	e.notifyMetricsObservers()
}
