package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/WangYihang/Domain-Prioritizer/pkg/application"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/cache"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/dns"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/domainservice"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/http"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/probe"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/storage"
	"github.com/WangYihang/Domain-Prioritizer/pkg/scoring"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Assembler assembles all components for the application
type Assembler struct {
	config   *Config
	logger   *log.Logger
	registry *prometheus.Registry
}

// App is an assembled engine plus the resources it owns
type App struct {
	Engine    *application.Engine
	Snapshots repository.SnapshotStore
	Metrics   *prometheus.Registry

	redis *redis.Client
}

// NewAssembler creates a new assembler
func NewAssembler(config *Config, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{
		config:   config,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
}

// Assemble builds the engine with all dependencies
func (a *Assembler) Assemble(opts ...application.Option) (*App, error) {
	engineConfig, err := a.config.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tables, err := scoring.LoadTables(a.config.TablesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load indicator tables: %w", err)
	}
	model, err := scoring.NewModel(tables)
	if err != nil {
		return nil, fmt.Errorf("failed to compile indicator tables: %w", err)
	}

	// Domain services
	normalizer := domainservice.NewNormalizer(domainservice.Config{
		CaseSensitive:   engineConfig.Normalizer.CaseSensitive,
		StripWWW:        engineConfig.Normalizer.StripWWW,
		MaxDomainLength: engineConfig.Normalizer.MaxDomainLength,
	})

	// Repositories
	registry := storage.NewRegistry(normalizer, storage.WithFilter(storage.NewBloomFilter(storage.DefaultFilterConfig)))

	// Probers
	fetcher := http.NewFetcher(http.Config{
		Timeout:           a.config.Timeout,
		MaxResponseSize:   a.config.MaxResponseSize,
		UserAgent:         a.config.UserAgent,
		RequestsPerSecond: a.config.RequestsPerSecond,
	})

	var proberOpts []probe.Option
	if !a.config.NoDNS {
		proberOpts = append(proberOpts, probe.WithResolver(dns.NewResolver(dns.Config{
			Servers: a.config.DNSServers,
			Timeout: a.config.DNSTimeout,
		})))
	}
	prober := probe.NewProber(fetcher, model, proberOpts...)

	app := &App{Metrics: a.registry}

	var platform service.PlatformProber = prober
	var business service.BusinessScorer = prober
	if a.config.RedisAddr != "" {
		app.redis = cache.NewRedisClient(a.config.RedisAddr)
		cached := cache.NewCachedProber(app.redis, prober, prober, cache.Config{TTL: a.config.RedisTTL}, a.logger.WithPrefix("cache"))
		platform, business = cached, cached
		a.logger.Info("probe cache enabled", "addr", a.config.RedisAddr, "ttl", a.config.RedisTTL)
	}

	if a.config.SnapshotDB != "" {
		store, err := storage.NewSQLiteSnapshotStore(a.config.SnapshotDB)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		app.Snapshots = store
	}

	engineOpts := []application.Option{
		application.WithPlatformProber(platform),
		application.WithBusinessScorer(business),
		application.WithLogger(a.logger.WithPrefix("engine")),
		application.WithRegisterer(a.registry),
	}
	app.Engine = application.NewEngine(engineConfig, registry, append(engineOpts, opts...)...)

	return app, nil
}

// Close releases the resources owned by the app
func (app *App) Close() error {
	var errs []error
	if app.Snapshots != nil {
		errs = append(errs, app.Snapshots.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	return errors.Join(errs...)
}

// LoadURLs reads candidate URLs from the configured input
func (a *Assembler) LoadURLs() ([]string, error) {
	if a.config.InputFile == "-" || a.config.InputFile == "" {
		return ReadURLs(os.Stdin)
	}

	file, err := os.Open(a.config.InputFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadURLs(file)
}

// ReadURLs reads one URL per line, skipping blank lines and # comments
func ReadURLs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var urls []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

// OpenWriter opens the queue output
func (a *Assembler) OpenWriter() (repository.RecordWriter, error) {
	writer, err := storage.NewJSONLWriter(a.config.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue writer: %w", err)
	}
	return writer, nil
}
