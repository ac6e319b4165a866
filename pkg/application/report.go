package application

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
)

// Report is the read-only summary of the registry
type Report struct {
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalDomains         int                          `json:"total_domains"`
	WebsiteTypes         map[entity.WebsiteType]int   `json:"website_types"`
	Platforms            map[entity.PlatformType]int  `json:"platforms"`
	PriorityLevels       map[entity.PriorityLevel]int `json:"priority_levels"`
	Industries           map[string]int               `json:"industries"`
	RootDomains          map[string]int               `json:"root_domains"`
	AverageBusinessScore float64                      `json:"average_business_score"`
	AveragePriorityScore float64                      `json:"average_priority_score"`
	AccessibilityRate    float64                      `json:"accessibility_rate"`
	ContactInfoRate      float64                      `json:"contact_info_rate"`
	ErrorRate            float64                      `json:"error_rate"`
	TotalCrawlBudget     int                          `json:"total_crawl_budget"`

	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// Report aggregates distributions and rates and derives insights. It never
// mutates the registry; priority fields reflect the last Prioritize call.
func (e *Engine) Report() *Report {
	rep := &Report{
		GeneratedAt:     e.now(),
		WebsiteTypes:    map[entity.WebsiteType]int{},
		Platforms:       map[entity.PlatformType]int{},
		PriorityLevels:  map[entity.PriorityLevel]int{},
		Industries:      map[string]int{},
		RootDomains:     map[string]int{},
		Insights:        []string{},
		Recommendations: []string{},
	}

	records := e.registry.Records()
	if len(records) == 0 {
		rep.Error = entity.ErrEmptyRegistry.Error()
		return rep
	}

	var businessSum, prioritySum float64
	var accessible, contact, errored int
	for _, r := range records {
		rep.WebsiteTypes[r.WebsiteType]++
		rep.Platforms[r.PlatformType]++
		rep.PriorityLevels[r.PriorityLevel]++
		rep.RootDomains[r.RootDomain]++
		rep.TotalCrawlBudget += r.CrawlBudget

		seen := map[string]bool{}
		for _, hint := range r.IndustryHints {
			if !seen[hint] {
				seen[hint] = true
				rep.Industries[hint]++
			}
		}

		businessSum += r.BusinessScore
		prioritySum += r.PriorityScore
		if r.IsAccessible {
			accessible++
		}
		if r.HasContactInfo() {
			contact++
		}
		for _, reason := range r.ExclusionReasons {
			if strings.HasPrefix(reason, "probe_error") {
				errored++
				break
			}
		}
	}

	n := float64(len(records))
	rep.TotalDomains = len(records)
	rep.AverageBusinessScore = businessSum / n
	rep.AveragePriorityScore = prioritySum / n
	rep.AccessibilityRate = float64(accessible) / n
	rep.ContactInfoRate = float64(contact) / n
	rep.ErrorRate = float64(errored) / n

	rep.Insights = insights(rep)
	rep.Recommendations = recommendations(rep)

	rep.Success = true
	return rep
}

func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func insights(rep *Report) []string {
	out := []string{}
	total := rep.TotalDomains

	if s := share(rep.Platforms[entity.PlatformWordPress], total); s > 30 {
		out = append(out, fmt.Sprintf("WordPress dominates the platform landscape at %.1f%%", s))
	}

	commerce := rep.Platforms[entity.PlatformShopify] + rep.Platforms[entity.PlatformBigCommerce] +
		rep.Platforms[entity.PlatformMagento] + rep.Platforms[entity.PlatformPrestaShop]
	if s := share(commerce, total); s > 20 {
		out = append(out, fmt.Sprintf("E-commerce platforms power %.1f%% of domains", s))
	}

	if s := share(rep.WebsiteTypes[entity.WebsiteBusiness]+rep.WebsiteTypes[entity.WebsiteEcommerce], total); s > 50 {
		out = append(out, fmt.Sprintf("Business and e-commerce sites make up %.1f%% of the candidate list", s))
	}

	if s := share(rep.PriorityLevels[entity.PriorityCritical]+rep.PriorityLevels[entity.PriorityHigh], total); s >= 30 {
		out = append(out, fmt.Sprintf("%.1f%% of domains are high-value crawl targets", s))
	}

	if rep.ContactInfoRate > 0.5 {
		out = append(out, fmt.Sprintf("Contact information found on %.1f%% of domains", rep.ContactInfoRate*100))
	}

	if rep.AverageBusinessScore >= 0.6 {
		out = append(out, fmt.Sprintf("Strong business signal with an average business score of %.2f", rep.AverageBusinessScore))
	}

	if name, count := top(rep.Industries); count > 0 {
		out = append(out, fmt.Sprintf("Most common industry is %s with %d domains", name, count))
	}

	if name, count := top(rep.RootDomains); count >= 3 && share(count, total) > 20 {
		out = append(out, fmt.Sprintf("Root domain %s accounts for %d domains", name, count))
	}

	return out
}

func recommendations(rep *Report) []string {
	out := []string{}

	if rep.AccessibilityRate < 0.8 {
		out = append(out, fmt.Sprintf("Accessibility is low at %.1f%%; retry failed domains with a longer timeout", rep.AccessibilityRate*100))
	}
	if rep.ErrorRate > 0.2 {
		out = append(out, fmt.Sprintf("Probe error rate is %.1f%%; lower the request rate or raise retries", rep.ErrorRate*100))
	}
	if s := share(rep.PriorityLevels[entity.PrioritySkip], rep.TotalDomains); s > 30 {
		out = append(out, fmt.Sprintf("%.1f%% of domains are skipped; review the candidate source for low-quality results", s))
	}
	if rep.AverageBusinessScore < 0.3 {
		out = append(out, fmt.Sprintf("Average business score is low at %.2f; narrow search queries toward business listings", rep.AverageBusinessScore))
	}
	if rep.ContactInfoRate < 0.2 {
		out = append(out, "Few domains expose contact details on the homepage; crawl contact and about pages first")
	}
	if len(out) == 0 {
		out = append(out, "Queue looks healthy; proceed with the crawl")
	}

	return out
}

// top returns the most frequent key, ties broken alphabetically
func top(counts map[string]int) (string, int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best, bestCount
}
