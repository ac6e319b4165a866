package entity

import (
	"math"
	"slices"
	"time"
)

// DomainRecord is the classification state of one canonical domain
type DomainRecord struct {
	Domain      string `json:"domain"`
	OriginalURL string `json:"original_url"`
	RootDomain  string `json:"root_domain"`

	WebsiteType   WebsiteType  `json:"website_type"`
	PlatformType  PlatformType `json:"platform_type"`
	BusinessScore float64      `json:"business_score"`

	// Derived by the priority calculator only
	PriorityScore float64       `json:"priority_score"`
	PriorityLevel PriorityLevel `json:"priority_level"`
	CrawlBudget   int           `json:"crawl_budget"`

	BusinessIndicators []string `json:"business_indicators"`
	PlatformIndicators []string `json:"platform_indicators"`
	NegativeIndicators []string `json:"negative_indicators"`
	IndustryHints      []string `json:"industry_hints"`
	ExclusionReasons   []string `json:"exclusion_reasons"`

	IsAccessible   bool   `json:"is_accessible"`
	ResponseTimeMs *int64 `json:"response_time_ms,omitempty"`
	StatusCode     *int   `json:"status_code,omitempty"`
	ContentLength  *int64 `json:"content_length,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	LastUpdated time.Time  `json:"last_updated"`
	LastProbed  *time.Time `json:"last_probed,omitempty"`

	// Seq is the insertion position in the registry, used for stable ordering
	Seq int `json:"-"`
}

// NewDomainRecord creates a record with the documented defaults
func NewDomainRecord(domain, originalURL, rootDomain string, now time.Time) *DomainRecord {
	return &DomainRecord{
		Domain:             domain,
		OriginalURL:        originalURL,
		RootDomain:         rootDomain,
		WebsiteType:        WebsiteUnknown,
		PlatformType:       PlatformUnknown,
		PriorityLevel:      PriorityMedium,
		BusinessIndicators: []string{},
		PlatformIndicators: []string{},
		NegativeIndicators: []string{},
		IndustryHints:      []string{},
		ExclusionReasons:   []string{},
		IsAccessible:       true,
		CreatedAt:          now,
		LastUpdated:        now,
	}
}

// Clone returns a deep copy so callers never alias registry state
func (r *DomainRecord) Clone() *DomainRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.BusinessIndicators = append([]string{}, r.BusinessIndicators...)
	c.PlatformIndicators = append([]string{}, r.PlatformIndicators...)
	c.NegativeIndicators = append([]string{}, r.NegativeIndicators...)
	c.IndustryHints = append([]string{}, r.IndustryHints...)
	c.ExclusionReasons = append([]string{}, r.ExclusionReasons...)
	if r.ResponseTimeMs != nil {
		v := *r.ResponseTimeMs
		c.ResponseTimeMs = &v
	}
	if r.StatusCode != nil {
		v := *r.StatusCode
		c.StatusCode = &v
	}
	if r.ContentLength != nil {
		v := *r.ContentLength
		c.ContentLength = &v
	}
	if r.LastProbed != nil {
		v := *r.LastProbed
		c.LastProbed = &v
	}
	return &c
}

// HasContactInfo reports whether a contact indicator was recorded
func (r *DomainRecord) HasContactInfo() bool {
	for _, indicator := range r.BusinessIndicators {
		if indicator == IndicatorContactInfo {
			return true
		}
	}
	return false
}

// IndicatorContactInfo is the business indicator recorded when contact details are found
const IndicatorContactInfo = "contact_info_found"

// Patch is a partial update of the probe-owned fields of a record.
// Nil fields are left untouched. Indicator and hint slices only gain entries
// the record has not seen; exclusion reasons are always appended.
type Patch struct {
	WebsiteType    *WebsiteType
	PlatformType   *PlatformType
	BusinessScore  *float64
	IsAccessible   *bool
	ResponseTimeMs *int64
	StatusCode     *int
	ContentLength  *int64
	LastProbed     *time.Time

	AppendBusinessIndicators []string
	AppendPlatformIndicators []string
	AppendNegativeIndicators []string
	AppendIndustryHints      []string
	AppendExclusionReasons   []string
}

// Apply writes the patch onto a record. Business scores are clamped to [0,1].
func (p Patch) Apply(r *DomainRecord) {
	if p.WebsiteType != nil {
		r.WebsiteType = *p.WebsiteType
	}
	if p.PlatformType != nil {
		r.PlatformType = *p.PlatformType
	}
	if p.BusinessScore != nil {
		r.BusinessScore = Clamp01(*p.BusinessScore)
	}
	if p.IsAccessible != nil {
		r.IsAccessible = *p.IsAccessible
	}
	if p.ResponseTimeMs != nil {
		v := *p.ResponseTimeMs
		r.ResponseTimeMs = &v
	}
	if p.StatusCode != nil {
		v := *p.StatusCode
		r.StatusCode = &v
	}
	if p.ContentLength != nil {
		v := *p.ContentLength
		r.ContentLength = &v
	}
	if p.LastProbed != nil {
		v := *p.LastProbed
		r.LastProbed = &v
	}
	r.BusinessIndicators = appendNew(r.BusinessIndicators, p.AppendBusinessIndicators)
	r.PlatformIndicators = appendNew(r.PlatformIndicators, p.AppendPlatformIndicators)
	r.NegativeIndicators = appendNew(r.NegativeIndicators, p.AppendNegativeIndicators)
	r.IndustryHints = appendNew(r.IndustryHints, p.AppendIndustryHints)
	r.ExclusionReasons = append(r.ExclusionReasons, p.AppendExclusionReasons...)
}

func appendNew(dst, src []string) []string {
	for _, v := range src {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// Clamp01 limits v to [0,1]; NaN maps to 0
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AddResult summarizes a registry insert
type AddResult struct {
	Added      int          `json:"added"`
	Duplicates int          `json:"duplicates"`
	Invalid    int          `json:"invalid"`
	Domains    []string     `json:"domains"`
	Failed     []FailedItem `json:"failed,omitempty"`
}

// Metrics is a point-in-time view of engine progress
type Metrics struct {
	Stage           string
	RegisteredCount int64
	DuplicateCount  int64
	InvalidCount    int64
	PlatformProbed  int64
	BusinessScored  int64
	ErrorCount      int64
	BatchesDone     int64
	BatchesTotal    int64
	StartTime       time.Time
	LastUpdateTime  time.Time
	ActiveDomains   []string
}
