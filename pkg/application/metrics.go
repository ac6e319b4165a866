package application

import (
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric stages
const (
	StagePlatform = "platform"
	StageBusiness = "business"
)

// Collectors holds the engine's Prometheus collectors
type Collectors struct {
	URLs           *prometheus.CounterVec
	Probes         *prometheus.CounterVec
	ProbeDuration  *prometheus.HistogramVec
	PriorityLevels *prometheus.GaugeVec
}

// NewCollectors creates the collectors and registers them on reg
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		URLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_prioritizer_urls_total",
			Help: "Candidate URLs seen by the registry, by outcome.",
		}, []string{"outcome"}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_prioritizer_probes_total",
			Help: "Platform and business probes, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domain_prioritizer_probe_duration_seconds",
			Help:    "Probe latency by stage.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage"}),
		PriorityLevels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "domain_prioritizer_priority_domains",
			Help: "Domains per priority level after the last prioritization.",
		}, []string{"level"}),
	}

	if reg != nil {
		reg.MustRegister(c.URLs, c.Probes, c.ProbeDuration, c.PriorityLevels)
	}
	return c
}

func (c *Collectors) observeAdd(r entity.AddResult) {
	c.URLs.WithLabelValues("added").Add(float64(r.Added))
	c.URLs.WithLabelValues("duplicate").Add(float64(r.Duplicates))
	c.URLs.WithLabelValues("invalid").Add(float64(r.Invalid))
}

func (c *Collectors) observeProbe(stage string, ok bool, seconds float64) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	c.Probes.WithLabelValues(stage, outcome).Inc()
	c.ProbeDuration.WithLabelValues(stage).Observe(seconds)
}

func (c *Collectors) observeDistribution(dist map[entity.PriorityLevel]int) {
	for _, level := range entity.PriorityLevels {
		c.PriorityLevels.WithLabelValues(string(level)).Set(float64(dist[level]))
	}
}
