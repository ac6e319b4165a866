package config

import (
	"fmt"
	"os"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration
type Config struct {
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Probe      ProbeConfig      `yaml:"probe"`
	Priority   PriorityConfig   `yaml:"priority"`
}

type NormalizerConfig struct {
	CaseSensitive   bool `yaml:"case_sensitive"`
	StripWWW        bool `yaml:"strip_www"`
	MaxDomainLength int  `yaml:"max_domain_length"`
}

type ProbeConfig struct {
	BatchSize  int           `yaml:"batch_size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
}

type WeightsConfig struct {
	Business      float64 `yaml:"business"`
	Platform      float64 `yaml:"platform"`
	Accessibility float64 `yaml:"accessibility"`
}

type BonusConfig struct {
	ContactInfo       float64 `yaml:"contact_info"`
	Address           float64 `yaml:"address"`
	Ecommerce         float64 `yaml:"ecommerce"`
	ManyIndicators    float64 `yaml:"many_indicators"`
	ManyIndicatorsMin int     `yaml:"many_indicators_min"`
}

type PenaltyConfig struct {
	Inaccessible float64 `yaml:"inaccessible"`
	PerExclusion float64 `yaml:"per_exclusion"`
}

type ThresholdConfig struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
	Skip     float64 `yaml:"skip"`
}

type PriorityConfig struct {
	Weights             WeightsConfig                   `yaml:"weights"`
	PlatformMultipliers map[entity.PlatformType]float64 `yaml:"platform_multipliers"`
	Bonuses             BonusConfig                     `yaml:"bonuses"`
	Penalties           PenaltyConfig                   `yaml:"penalties"`
	Thresholds          ThresholdConfig                 `yaml:"thresholds"`
	CrawlBudgets        map[entity.PriorityLevel]int    `yaml:"crawl_budgets"`
	FallbackLevel       entity.PriorityLevel            `yaml:"fallback_level"`
	FallbackBudget      int                             `yaml:"fallback_budget"`
}

// Default returns the documented default configuration
func Default() *Config {
	return &Config{
		Normalizer: NormalizerConfig{
			CaseSensitive:   false,
			StripWWW:        true,
			MaxDomainLength: 253,
		},
		Probe: ProbeConfig{
			BatchSize:  10,
			BatchDelay: time.Second,
			Timeout:    10 * time.Second,
			Retries:    1,
		},
		Priority: PriorityConfig{
			Weights: WeightsConfig{
				Business:      0.7,
				Platform:      0.2,
				Accessibility: 0.1,
			},
			PlatformMultipliers: map[entity.PlatformType]float64{
				entity.PlatformShopify:     1.3,
				entity.PlatformWordPress:   1.1,
				entity.PlatformCustom:      1.2,
				entity.PlatformWix:         1.0,
				entity.PlatformSquarespace: 1.0,
				entity.PlatformUnknown:     0.8,
			},
			Bonuses: BonusConfig{
				ContactInfo:       0.10,
				Address:           0.05,
				Ecommerce:         0.15,
				ManyIndicators:    0.05,
				ManyIndicatorsMin: 3,
			},
			Penalties: PenaltyConfig{
				Inaccessible: 0.20,
				PerExclusion: 0.05,
			},
			Thresholds: ThresholdConfig{
				Critical: 0.8,
				High:     0.7,
				Medium:   0.5,
				Low:      0.3,
				Skip:     0.2,
			},
			CrawlBudgets: map[entity.PriorityLevel]int{
				entity.PriorityCritical: 20,
				entity.PriorityHigh:     15,
				entity.PriorityMedium:   10,
				entity.PriorityLow:      5,
				entity.PrioritySkip:     0,
			},
			FallbackLevel:  entity.PriorityLow,
			FallbackBudget: 5,
		},
	}
}

// Load reads a YAML override file on top of the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PlatformMultiplier returns the multiplier for a platform, 1.0 when unset
func (p *PriorityConfig) PlatformMultiplier(platform entity.PlatformType) float64 {
	if m, ok := p.PlatformMultipliers[platform]; ok {
		return m
	}
	return 1.0
}

// CrawlBudget returns the page budget for a level, 0 when unset
func (p *PriorityConfig) CrawlBudget(level entity.PriorityLevel) int {
	return p.CrawlBudgets[level]
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Normalizer.MaxDomainLength <= 0 {
		return fmt.Errorf("max domain length must be > 0, got %d", c.Normalizer.MaxDomainLength)
	}

	if c.Probe.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", c.Probe.BatchSize)
	}

	if c.Probe.BatchDelay < 0 {
		return fmt.Errorf("batch delay must be >= 0, got %s", c.Probe.BatchDelay)
	}

	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be > 0, got %s", c.Probe.Timeout)
	}

	if c.Probe.Retries < 0 {
		return fmt.Errorf("probe retries must be >= 0, got %d", c.Probe.Retries)
	}

	w := c.Priority.Weights
	if w.Business < 0 || w.Platform < 0 || w.Accessibility < 0 {
		return fmt.Errorf("priority weights must be >= 0, got %+v", w)
	}

	for platform, m := range c.Priority.PlatformMultipliers {
		if m < 0 {
			return fmt.Errorf("platform multiplier for %s must be >= 0, got %f", platform, m)
		}
	}

	if c.Priority.Bonuses.ManyIndicatorsMin <= 0 {
		return fmt.Errorf("many indicators minimum must be > 0, got %d", c.Priority.Bonuses.ManyIndicatorsMin)
	}

	t := c.Priority.Thresholds
	if !(t.Critical >= t.High && t.High >= t.Medium && t.Medium >= t.Low && t.Low >= t.Skip) {
		return fmt.Errorf("priority thresholds must be descending critical >= high >= medium >= low >= skip, got %+v", t)
	}

	for level, budget := range c.Priority.CrawlBudgets {
		if level.Rank() < 0 {
			return fmt.Errorf("crawl budget for %w: %q", entity.ErrUnknownPriority, level)
		}
		if budget < 0 {
			return fmt.Errorf("crawl budget for %s must be >= 0, got %d", level, budget)
		}
	}

	if c.Priority.FallbackLevel.Rank() < 0 {
		return fmt.Errorf("fallback %w: %q", entity.ErrUnknownPriority, c.Priority.FallbackLevel)
	}

	if c.Priority.FallbackBudget < 0 {
		return fmt.Errorf("fallback budget must be >= 0, got %d", c.Priority.FallbackBudget)
	}

	return nil
}
