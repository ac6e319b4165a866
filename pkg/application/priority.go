package application

import (
	"fmt"
	"math"
	"strings"

	"github.com/WangYihang/Domain-Prioritizer/pkg/config"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
)

// PrioritizedDomain is one row of a prioritization pass
type PrioritizedDomain struct {
	Domain        string               `json:"domain"`
	PriorityScore float64              `json:"priority_score"`
	PriorityLevel entity.PriorityLevel `json:"priority_level"`
	CrawlBudget   int                  `json:"crawl_budget"`
}

// PriorityResult is returned by Prioritize
type PriorityResult struct {
	Success              bool                         `json:"success"`
	Error                string                       `json:"error,omitempty"`
	Processed            int                          `json:"processed"`
	PriorityDistribution map[entity.PriorityLevel]int `json:"priority_distribution"`
	TotalCrawlBudget     int                          `json:"total_crawl_budget"`
	PrioritizedDomains   []PrioritizedDomain          `json:"prioritized_domains"`
	// Failed lists domains that fell back to the default level
	Failed []entity.FailedItem `json:"failed,omitempty"`
}

// Prioritize recomputes priority score, level and crawl budget for every
// record. It is a pure function of registry state and configuration.
func (e *Engine) Prioritize() PriorityResult {
	result := PriorityResult{PriorityDistribution: map[entity.PriorityLevel]int{}}
	if e.registry.Len() == 0 {
		result.Error = entity.ErrEmptyRegistry.Error()
		return result
	}

	cfg := &e.config.Priority
	for _, r := range e.registry.Records() {
		score, err := safePriorityScore(r, cfg)

		var level entity.PriorityLevel
		var budget int
		if err != nil {
			score, level, budget = 0, cfg.FallbackLevel, cfg.FallbackBudget
			result.Failed = append(result.Failed, entity.FailedItem{Domain: r.Domain, Reason: err.Error()})
			e.logger.Warn("priority fallback", "domain", r.Domain, "err", err)
		} else {
			level = DecideLevel(r, score, cfg.Thresholds)
			budget = cfg.CrawlBudget(level)
		}

		e.registry.AssignPriority(r.Domain, score, level, budget)

		result.Processed++
		result.PriorityDistribution[level]++
		result.TotalCrawlBudget += budget
		result.PrioritizedDomains = append(result.PrioritizedDomains, PrioritizedDomain{
			Domain:        r.Domain,
			PriorityScore: score,
			PriorityLevel: level,
			CrawlBudget:   budget,
		})
	}

	e.collectors.observeDistribution(result.PriorityDistribution)
	e.logger.Info("prioritized", "domains", result.Processed, "budget", result.TotalCrawlBudget, "fallbacks", len(result.Failed))

	result.Success = true
	return result
}

// safePriorityScore turns a panic in the score computation into an error
func safePriorityScore(r *entity.DomainRecord, cfg *config.PriorityConfig) (score float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", entity.ErrComputation, p)
		}
	}()
	return PriorityScore(r, cfg)
}

// PriorityScore computes the clamped composite score of a record:
// weighted business score, platform multiplier offset and accessibility,
// plus bonuses and minus penalties.
func PriorityScore(r *entity.DomainRecord, cfg *config.PriorityConfig) (float64, error) {
	if r == nil {
		return 0, fmt.Errorf("%w: nil record", entity.ErrComputation)
	}
	if math.IsNaN(r.BusinessScore) || math.IsInf(r.BusinessScore, 0) {
		return 0, fmt.Errorf("%w: business score is %v", entity.ErrComputation, r.BusinessScore)
	}

	w := cfg.Weights
	accessibility := 0.0
	if r.IsAccessible {
		accessibility = 1.0
	}

	score := w.Business*r.BusinessScore +
		w.Platform*(cfg.PlatformMultiplier(r.PlatformType)-1.0) +
		w.Accessibility*accessibility +
		bonuses(r, cfg.Bonuses) -
		penalties(r, cfg.Penalties)

	if math.IsNaN(score) {
		return 0, fmt.Errorf("%w: score is NaN", entity.ErrComputation)
	}
	return entity.Clamp01(score), nil
}

func bonuses(r *entity.DomainRecord, b config.BonusConfig) float64 {
	total := 0.0
	if r.HasContactInfo() {
		total += b.ContactInfo
	}
	for _, indicator := range r.BusinessIndicators {
		if strings.Contains(strings.ToLower(indicator), "address") {
			total += b.Address
			break
		}
	}
	if r.WebsiteType == entity.WebsiteEcommerce {
		total += b.Ecommerce
	}
	if len(r.BusinessIndicators) >= b.ManyIndicatorsMin {
		total += b.ManyIndicators
	}
	return total
}

func penalties(r *entity.DomainRecord, p config.PenaltyConfig) float64 {
	total := p.PerExclusion * float64(len(r.ExclusionReasons))
	if !r.IsAccessible {
		total += p.Inaccessible
	}
	return total
}

// DecideLevel maps a score onto a priority level; the first matching rule wins
func DecideLevel(r *entity.DomainRecord, score float64, t config.ThresholdConfig) entity.PriorityLevel {
	switch {
	case r.WebsiteType == entity.WebsiteEcommerce && score >= t.Critical && r.IsAccessible:
		return entity.PriorityCritical
	case score >= t.High:
		return entity.PriorityHigh
	case score >= t.Medium:
		return entity.PriorityMedium
	case score >= t.Low:
		return entity.PriorityLow
	case !r.IsAccessible || score < t.Skip:
		return entity.PrioritySkip
	default:
		return entity.PriorityLow
	}
}
