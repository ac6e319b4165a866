package application

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
)

// ExportFormat names a queue export shape
type ExportFormat string

const (
	FormatJSON        ExportFormat = "json"
	FormatCSVData     ExportFormat = "csv_data"
	FormatSiteCrawler ExportFormat = "sitecrawler_format"
)

// ExportFormats lists the supported formats
var ExportFormats = []ExportFormat{FormatJSON, FormatCSVData, FormatSiteCrawler}

// ParseExportFormat parses a format name
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ExportFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", entity.ErrUnknownExportFormat, s)
}

// Queue is an ordered, filtered and budgeted crawl queue
type Queue struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Filters []entity.PriorityLevel `json:"filters"`
	// Eligible counts domains passing the filters before truncation
	Eligible int                    `json:"eligible"`
	Entries  []*entity.DomainRecord `json:"entries"`
}

// DefaultQueueFilters is every level except skip
func DefaultQueueFilters() []entity.PriorityLevel {
	return []entity.PriorityLevel{entity.PriorityCritical, entity.PriorityHigh, entity.PriorityMedium, entity.PriorityLow}
}

// BuildQueue re-prioritizes the registry, keeps domains whose level is in
// filters (default: all but skip), sorts by priority score descending with
// insertion order breaking ties, and truncates to maxDomains when > 0.
func (e *Engine) BuildQueue(filters []entity.PriorityLevel, maxDomains int) *Queue {
	q := &Queue{Entries: []*entity.DomainRecord{}}

	if pr := e.Prioritize(); !pr.Success {
		q.Error = pr.Error
		return q
	}

	if len(filters) == 0 {
		filters = DefaultQueueFilters()
	}
	q.Filters = filters

	allowed := make(map[entity.PriorityLevel]bool, len(filters))
	for _, f := range filters {
		allowed[f] = true
	}

	for _, r := range e.registry.Records() {
		if allowed[r.PriorityLevel] {
			q.Entries = append(q.Entries, r)
		}
	}

	sort.SliceStable(q.Entries, func(i, j int) bool {
		a, b := q.Entries[i], q.Entries[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		return a.Seq < b.Seq
	})

	q.Eligible = len(q.Entries)
	if maxDomains > 0 && len(q.Entries) > maxDomains {
		q.Entries = q.Entries[:maxDomains]
	}

	e.logger.Info("built queue", "eligible", q.Eligible, "entries", len(q.Entries))
	q.Success = true
	return q
}

// CSVData is a flattened table with explicit header order
type CSVData struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// CSVHeaders is the column order of csv_data exports
var CSVHeaders = []string{
	"queue_position", "domain", "original_url", "root_domain",
	"priority_level", "priority_score", "crawl_budget",
	"website_type", "platform_type", "business_score",
	"is_accessible", "response_time_ms", "status_code",
	"business_indicators", "platform_indicators", "industry_hints", "exclusion_reasons",
}

// SiteCrawlerEntry is the contract consumed by the page crawler.
// MaxPages is an upper bound, not a target.
type SiteCrawlerEntry struct {
	Domain        string              `json:"domain"`
	URL           string              `json:"url"`
	MaxPages      int                 `json:"max_pages"`
	Priority      string              `json:"priority"`
	WebsiteType   entity.WebsiteType  `json:"website_type"`
	PlatformType  entity.PlatformType `json:"platform_type"`
	BusinessScore float64             `json:"business_score"`
	Metadata      SiteCrawlerMetadata `json:"metadata"`
}

// SiteCrawlerMetadata carries indicator lists and the queue position
type SiteCrawlerMetadata struct {
	BusinessIndicators []string `json:"business_indicators"`
	PlatformIndicators []string `json:"platform_indicators"`
	IndustryHints      []string `json:"industry_hints"`
	QueuePosition      int      `json:"queue_position"`
	PriorityScore      float64  `json:"priority_score"`
}

// Export renders the queue: full records for json, a CSVData for csv_data
// and []SiteCrawlerEntry for sitecrawler_format.
func (q *Queue) Export(format ExportFormat) (any, error) {
	switch format {
	case FormatJSON:
		return q.Entries, nil
	case FormatCSVData:
		return q.csvData(), nil
	case FormatSiteCrawler:
		return q.siteCrawler(), nil
	}
	return nil, fmt.Errorf("%w: %q", entity.ErrUnknownExportFormat, format)
}

// Items returns the export as a list of entries, one per queue position
func (q *Queue) Items(format ExportFormat) ([]any, error) {
	payload, err := q.Export(format)
	if err != nil {
		return nil, err
	}

	var items []any
	switch v := payload.(type) {
	case []*entity.DomainRecord:
		for _, r := range v {
			items = append(items, r)
		}
	case CSVData:
		for _, row := range v.Rows {
			items = append(items, row)
		}
	case []SiteCrawlerEntry:
		for _, entry := range v {
			items = append(items, entry)
		}
	}
	return items, nil
}

func (q *Queue) csvData() CSVData {
	data := CSVData{Headers: append([]string{}, CSVHeaders...), Rows: make([]map[string]string, 0, len(q.Entries))}
	for i, r := range q.Entries {
		row := map[string]string{
			"queue_position":      strconv.Itoa(i + 1),
			"domain":              r.Domain,
			"original_url":        r.OriginalURL,
			"root_domain":         r.RootDomain,
			"priority_level":      string(r.PriorityLevel),
			"priority_score":      strconv.FormatFloat(r.PriorityScore, 'f', 3, 64),
			"crawl_budget":        strconv.Itoa(r.CrawlBudget),
			"website_type":        string(r.WebsiteType),
			"platform_type":       string(r.PlatformType),
			"business_score":      strconv.FormatFloat(r.BusinessScore, 'f', 3, 64),
			"is_accessible":       strconv.FormatBool(r.IsAccessible),
			"response_time_ms":    "",
			"status_code":         "",
			"business_indicators": strings.Join(r.BusinessIndicators, "; "),
			"platform_indicators": strings.Join(r.PlatformIndicators, "; "),
			"industry_hints":      strings.Join(r.IndustryHints, "; "),
			"exclusion_reasons":   strings.Join(r.ExclusionReasons, "; "),
		}
		if r.ResponseTimeMs != nil {
			row["response_time_ms"] = strconv.FormatInt(*r.ResponseTimeMs, 10)
		}
		if r.StatusCode != nil {
			row["status_code"] = strconv.Itoa(*r.StatusCode)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func (q *Queue) siteCrawler() []SiteCrawlerEntry {
	entries := make([]SiteCrawlerEntry, 0, len(q.Entries))
	for i, r := range q.Entries {
		url := r.OriginalURL
		if !strings.Contains(url, "://") {
			url = "https://" + r.Domain
		}
		entries = append(entries, SiteCrawlerEntry{
			Domain:        r.Domain,
			URL:           url,
			MaxPages:      r.CrawlBudget,
			Priority:      string(r.PriorityLevel),
			WebsiteType:   r.WebsiteType,
			PlatformType:  r.PlatformType,
			BusinessScore: r.BusinessScore,
			Metadata: SiteCrawlerMetadata{
				BusinessIndicators: r.BusinessIndicators,
				PlatformIndicators: r.PlatformIndicators,
				IndustryHints:      r.IndustryHints,
				QueuePosition:      i + 1,
				PriorityScore:      r.PriorityScore,
			},
		})
	}
	return entries
}
