package scoring

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
)

// Assessment is the business scoring result for one page
type Assessment struct {
	Score       float64
	Raw         float64
	WebsiteType entity.WebsiteType
	Positive    []string
	Negative    []string
	Industries  []string
}

type signature struct {
	platform  entity.PlatformType
	headers   map[string]*regexp.Regexp
	html      []*regexp.Regexp
	generator *regexp.Regexp
	weight    float64
}

type indicator struct {
	name     string
	weight   float64
	positive []*regexp.Regexp
	negative []*regexp.Regexp
}

type websiteRule struct {
	typ       entity.WebsiteType
	patterns  []*regexp.Regexp
	platforms map[entity.PlatformType]bool
	min       int
}

type industry struct {
	name     string
	keywords []*regexp.Regexp
}

// Model is the compiled form of Tables. It is safe for concurrent use.
type Model struct {
	tables     *Tables
	signatures []signature
	indicators []indicator
	rules      []websiteRule
	industries []industry
}

// NewModel compiles all table patterns case-insensitively
func NewModel(tables *Tables) (*Model, error) {
	if tables == nil {
		tables = DefaultTables()
	}
	if tables.Ceiling <= 0 {
		return nil, fmt.Errorf("indicator ceiling must be > 0, got %f", tables.Ceiling)
	}

	m := &Model{tables: tables}

	for _, s := range tables.Platforms {
		sig := signature{platform: s.Platform, weight: s.Weight, headers: map[string]*regexp.Regexp{}}
		for header, pattern := range s.Headers {
			re, err := compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("platform %s header %s: %w", s.Platform, header, err)
			}
			sig.headers[header] = re
		}
		html, err := compileAll(s.HTML)
		if err != nil {
			return nil, fmt.Errorf("platform %s: %w", s.Platform, err)
		}
		sig.html = html
		if s.Generator != "" {
			if sig.generator, err = compile(s.Generator); err != nil {
				return nil, fmt.Errorf("platform %s generator: %w", s.Platform, err)
			}
		}
		m.signatures = append(m.signatures, sig)
	}

	for _, ind := range tables.Indicators {
		positive, err := compileAll(ind.Positive)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", ind.Name, err)
		}
		negative, err := compileAll(ind.Negative)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", ind.Name, err)
		}
		m.indicators = append(m.indicators, indicator{name: ind.Name, weight: ind.Weight, positive: positive, negative: negative})
	}

	for _, rule := range tables.WebsiteRules {
		patterns, err := compileAll(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("website rule %s: %w", rule.Type, err)
		}
		platforms := map[entity.PlatformType]bool{}
		for _, p := range rule.Platforms {
			platforms[p] = true
		}
		min := rule.MinMatches
		if min <= 0 {
			min = 1
		}
		m.rules = append(m.rules, websiteRule{typ: rule.Type, patterns: patterns, platforms: platforms, min: min})
	}

	for _, ind := range tables.Industries {
		var keywords []*regexp.Regexp
		for _, k := range ind.Keywords {
			re, err := compile(`\b` + regexp.QuoteMeta(k) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("industry %s: %w", ind.Name, err)
			}
			keywords = append(keywords, re)
		}
		m.industries = append(m.industries, industry{name: ind.Name, keywords: keywords})
	}

	return m, nil
}

// Tables returns the tables the model was compiled from
func (m *Model) Tables() *Tables {
	return m.tables
}

// Score computes the business score of a page. Each indicator contributes
// weight * (positive - negative) * platform multiplier * match dampening, and
// the sum is divided by the ceiling and clamped to [0,1].
func (m *Model) Score(page *Page, platform entity.PlatformType) Assessment {
	corpus := page.corpus()
	multiplier := m.tables.Multiplier(platform)

	a := Assessment{
		Positive:   []string{},
		Negative:   []string{},
		Industries: []string{},
	}

	for _, ind := range m.indicators {
		pos := countMatches(ind.positive, corpus)
		neg := countMatches(ind.negative, corpus)
		if pos == 0 && neg == 0 {
			continue
		}

		var posScore, negScore float64
		if pos > 0 {
			posScore = 1
			a.Positive = append(a.Positive, ind.name)
		}
		if neg > 0 {
			negScore = 1
			a.Negative = append(a.Negative, ind.name)
		}

		a.Raw += ind.weight * (posScore - negScore) * multiplier * Dampening(pos+neg)
	}

	a.Score = entity.Clamp01(a.Raw / m.tables.Ceiling)
	a.WebsiteType = m.classify(corpus, platform, a.Score)

	for _, ind := range m.industries {
		if countMatches(ind.keywords, corpus) > 0 {
			a.Industries = append(a.Industries, ind.name)
		}
	}

	return a
}

// Dampening grows sub-linearly with repeated matches and caps at 2.0
func Dampening(matches int) float64 {
	if matches <= 0 {
		return 0
	}
	return math.Min(2.0, 1.0+float64(matches-1)*0.1)
}

func (m *Model) classify(corpus string, platform entity.PlatformType, score float64) entity.WebsiteType {
	for _, rule := range m.rules {
		if rule.platforms[platform] {
			return rule.typ
		}
		hits := 0
		for _, re := range rule.patterns {
			if re.MatchString(corpus) {
				hits++
			}
		}
		if hits >= rule.min {
			return rule.typ
		}
	}

	if score >= m.tables.BusinessThreshold {
		return entity.WebsiteBusiness
	}
	return entity.WebsiteUnknown
}

// DetectPlatforms matches the page against every platform signature and
// returns detections ordered by confidence, highest first. A page that matches
// nothing is reported as a custom build.
func (m *Model) DetectPlatforms(page *Page) []service.PlatformDetection {
	var detections []service.PlatformDetection

	for _, sig := range m.signatures {
		var evidence []string
		for header, re := range sig.headers {
			if v := page.Headers.Get(header); v != "" && re.MatchString(v) {
				evidence = append(evidence, fmt.Sprintf("header %s: %s", header, v))
			}
		}
		for _, re := range sig.html {
			if re.MatchString(page.HTML) {
				evidence = append(evidence, "html "+re.String()[len("(?i)"):])
			}
		}
		if sig.generator != nil && page.Generator != "" && sig.generator.MatchString(page.Generator) {
			evidence = append(evidence, "generator "+page.Generator)
		}
		if len(evidence) == 0 {
			continue
		}

		sort.Strings(evidence)
		detections = append(detections, service.PlatformDetection{
			Platform:   sig.platform,
			Confidence: math.Min(1.0, float64(len(evidence))*sig.weight),
			Evidence:   evidence,
		})
	}

	if len(detections) == 0 {
		if page.HTML == "" {
			return nil
		}
		return []service.PlatformDetection{{
			Platform:   entity.PlatformCustom,
			Confidence: m.tables.CustomConfidence,
			Evidence:   []string{"no known platform signature"},
		}}
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	return detections
}

func compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func countMatches(patterns []*regexp.Regexp, corpus string) int {
	n := 0
	for _, re := range patterns {
		n += len(re.FindAllStringIndex(corpus, -1))
	}
	return n
}
