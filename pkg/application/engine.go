package application

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/config"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine classifies registered domains and turns them into a crawl queue.
// It is long-lived: every stage reads and writes the same registry, and
// persistence happens only through SaveSnapshot and LoadSnapshot.
type Engine struct {
	config *config.Config

	// Services
	platform service.PlatformProber
	business service.BusinessScorer

	// Repositories
	registry repository.DomainRegistry

	// Ambient
	logger     *log.Logger
	collectors *Collectors
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	// State
	metrics          *entity.Metrics
	metricsLock      sync.RWMutex
	active           map[string]struct{}
	metricsObservers []MetricsObserver
}

// MetricsObserver observes engine progress
type MetricsObserver interface {
	OnMetricsUpdate(metrics *entity.Metrics)
	// OnDomainProcessed is called once per domain per round; err is nil on success
	OnDomainProcessed(stage, domain string, err error)
}

// Option configures an Engine
type Option func(*Engine)

// WithPlatformProber sets the platform collaborator
func WithPlatformProber(p service.PlatformProber) Option {
	return func(e *Engine) { e.platform = p }
}

// WithBusinessScorer sets the business collaborator
func WithBusinessScorer(s service.BusinessScorer) Option {
	return func(e *Engine) { e.business = s }
}

// WithLogger sets the structured logger
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRegisterer registers the engine's collectors on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.collectors = NewCollectors(reg) }
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSleeper replaces the inter-batch sleep, mostly for tests
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithObserver registers a metrics observer
func WithObserver(observer MetricsObserver) Option {
	return func(e *Engine) { e.metricsObservers = append(e.metricsObservers, observer) }
}

// NewEngine creates an engine over registry. A nil config means config.Default().
func NewEngine(cfg *config.Config, registry repository.DomainRegistry, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		config:   cfg,
		registry: registry,
		now:      time.Now,
		sleep:    sleepContext,
		active:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "engine"})
	}
	if e.collectors == nil {
		e.collectors = NewCollectors(nil)
	}
	e.metrics = &entity.Metrics{StartTime: e.now()}
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() *config.Config {
	return e.config
}

// Registry returns the engine's registry
func (e *Engine) Registry() repository.DomainRegistry {
	return e.registry
}

// RegisterMetricsObserver registers a metrics observer
func (e *Engine) RegisterMetricsObserver(observer MetricsObserver) {
	e.metricsObservers = append(e.metricsObservers, observer)
}

// AddResult is returned by AddURLs and LoadSnapshot
type AddResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	entity.AddResult
}

// AddURLs normalizes and registers candidate URLs
func (e *Engine) AddURLs(urls []string) AddResult {
	r := e.registry.Add(urls)
	e.collectors.observeAdd(r)

	e.metricsLock.Lock()
	e.metrics.RegisteredCount += int64(r.Added)
	e.metrics.DuplicateCount += int64(r.Duplicates)
	e.metrics.InvalidCount += int64(r.Invalid)
	e.metrics.LastUpdateTime = e.now()
	e.metricsLock.Unlock()
	e.notifyMetricsObservers()

	e.logger.Info("registered urls", "added", r.Added, "duplicates", r.Duplicates, "invalid", r.Invalid)
	for _, f := range r.Failed {
		e.logger.Debug("rejected input", "input", f.Domain, "err", f.Reason)
	}

	return AddResult{Success: true, AddResult: r}
}

// SaveSnapshot stores the current registry contents and returns the run ID
func (e *Engine) SaveSnapshot(ctx context.Context, store repository.SnapshotStore) (string, error) {
	if e.registry.Len() == 0 {
		return "", entity.ErrEmptyRegistry
	}
	runID, err := store.Save(ctx, e.registry.Records())
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	e.logger.Info("saved snapshot", "run", runID, "records", e.registry.Len())
	return runID, nil
}

// LoadSnapshot restores a saved run into the registry. Domains already
// registered keep their current state.
func (e *Engine) LoadSnapshot(ctx context.Context, store repository.SnapshotStore, runID string) AddResult {
	records, err := store.Load(ctx, runID)
	if err != nil {
		return AddResult{Error: fmt.Sprintf("load snapshot: %v", err)}
	}
	r := e.registry.Restore(records)

	e.metricsLock.Lock()
	e.metrics.RegisteredCount += int64(r.Added)
	e.metricsLock.Unlock()

	e.logger.Info("loaded snapshot", "run", runID, "added", r.Added, "duplicates", r.Duplicates)
	return AddResult{Success: true, AddResult: r}
}

// GetMetrics returns the current metrics
func (e *Engine) GetMetrics() *entity.Metrics {
	e.metricsLock.RLock()
	defer e.metricsLock.RUnlock()

	metrics := *e.metrics
	metrics.ActiveDomains = make([]string, 0, len(e.active))
	for domain := range e.active {
		metrics.ActiveDomains = append(metrics.ActiveDomains, domain)
	}
	return &metrics
}

// notifyMetricsObservers notifies all registered observers
func (e *Engine) notifyMetricsObservers() {
	if len(e.metricsObservers) == 0 {
		return
	}
	metrics := e.GetMetrics()
	for _, observer := range e.metricsObservers {
		observer.OnMetricsUpdate(metrics)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
