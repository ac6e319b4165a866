package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/application"
	"github.com/WangYihang/Domain-Prioritizer/pkg/config"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Config holds all command line configuration
type Config struct {
	// Input/Output
	InputFile  string `short:"i" long:"input" env:"DP_INPUT" description:"Input file with candidate URLs (one per line)" default:"-"`
	OutputFile string `short:"o" long:"output" env:"DP_OUTPUT" description:"Output file for the crawl queue, - for stdout" default:"queue.jsonl"`
	Format     string `short:"f" long:"format" env:"DP_FORMAT" description:"Queue export format" choice:"json" choice:"csv_data" choice:"sitecrawler_format" default:"sitecrawler_format"`

	// Queue
	Priorities []string `short:"p" long:"priority" env:"DP_PRIORITIES" env-delim:"," description:"Priority levels to include in the queue (repeatable), all but skip when empty"`
	MaxDomains int      `short:"n" long:"max-domains" env:"DP_MAX_DOMAINS" description:"Maximum queue length, 0 for unlimited" default:"0"`

	// Probing
	BatchSize         int           `long:"batch-size" env:"DP_BATCH_SIZE" description:"Domains probed concurrently per batch" default:"10"`
	BatchDelay        time.Duration `long:"batch-delay" env:"DP_BATCH_DELAY" description:"Pause between batches" default:"1s"`
	Timeout           time.Duration `long:"timeout" env:"DP_TIMEOUT" description:"Per-probe timeout" default:"10s"`
	Retries           int           `long:"retries" env:"DP_RETRIES" description:"Retries per probe" default:"1"`
	RequestsPerSecond float64       `long:"rps" env:"DP_RPS" description:"HTTP request rate limit, 0 for unlimited" default:"0"`
	MaxResponseSize   int64         `long:"max-response-size" env:"DP_MAX_RESPONSE_SIZE" description:"Maximum HTTP response size in bytes" default:"2097152"`
	UserAgent         string        `long:"user-agent" env:"DP_USER_AGENT" description:"HTTP User-Agent header"`
	SkipPlatform      bool          `long:"skip-platform" description:"Skip the platform probing round"`
	SkipBusiness      bool          `long:"skip-business" description:"Skip the business scoring round"`

	// DNS
	DNSServers []string      `long:"dns-server" env:"DP_DNS_SERVERS" env-delim:"," description:"DNS server for pre-flight lookups (repeatable)"`
	DNSTimeout time.Duration `long:"dns-timeout" env:"DP_DNS_TIMEOUT" description:"DNS query timeout" default:"3s"`
	NoDNS      bool          `long:"no-dns" description:"Disable DNS pre-flight lookups"`

	// Cache
	RedisAddr string        `long:"redis" env:"DP_REDIS_ADDR" description:"Redis address for the probe cache, disabled when empty"`
	RedisTTL  time.Duration `long:"redis-ttl" env:"DP_REDIS_TTL" description:"Probe cache TTL" default:"24h"`

	// Snapshots
	SnapshotDB string `long:"snapshot-db" env:"DP_SNAPSHOT_DB" description:"SQLite database for registry snapshots, disabled when empty"`
	LoadRun    string `long:"load-run" description:"Restore a saved run before adding new URLs"`
	ListRuns   bool   `long:"list-runs" description:"List saved runs and exit"`

	// Tuning
	ConfigFile string `short:"c" long:"config" env:"DP_CONFIG" description:"YAML file overriding weights, thresholds and budgets"`
	TablesFile string `long:"tables" env:"DP_TABLES" description:"YAML file overriding platform signatures and business indicators"`

	// Observability
	MetricsAddr   string `long:"metrics-addr" env:"DP_METRICS_ADDR" description:"Serve Prometheus metrics on this address, disabled when empty"`
	LogLevel      string `long:"log-level" env:"DP_LOG_LEVEL" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	ShowDashboard bool   `long:"dashboard" description:"Show interactive TUI dashboard"`
	ShowProgress  bool   `long:"progress" description:"Show progress bars"`
	ShowVersion   bool   `short:"v" long:"version" description:"Print version and exit"`

	// Derived
	ExportFormat   application.ExportFormat `no-flag:"true"`
	PriorityLevels []entity.PriorityLevel   `no-flag:"true"`
	Level          log.Level                `no-flag:"true"`
}

// ParseFlags loads .env, then parses command line flags
func ParseFlags() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, err
	}
	return cfg, nil
}

// ParseArgs parses args into a validated configuration
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	parser := flags.NewParser(cfg, flags.Default)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolve fills the derived fields
func (c *Config) resolve() error {
	format, err := application.ParseExportFormat(c.Format)
	if err != nil {
		return err
	}
	c.ExportFormat = format

	c.PriorityLevels = nil
	for _, p := range c.Priorities {
		level, err := entity.ParsePriorityLevel(p)
		if err != nil {
			return err
		}
		c.PriorityLevels = append(c.PriorityLevels, level)
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	c.Level = level

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", c.BatchSize)
	}

	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay must be >= 0, got %s", c.BatchDelay)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}

	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", c.Retries)
	}

	if c.MaxDomains < 0 {
		return fmt.Errorf("max domains must be >= 0, got %d", c.MaxDomains)
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must be >= 0, got %f", c.RequestsPerSecond)
	}

	if c.MaxResponseSize <= 0 {
		return fmt.Errorf("max response size must be > 0, got %d", c.MaxResponseSize)
	}

	if c.DNSTimeout <= 0 {
		return fmt.Errorf("DNS timeout must be > 0, got %s", c.DNSTimeout)
	}

	if c.LoadRun != "" && c.SnapshotDB == "" {
		return fmt.Errorf("--load-run requires --snapshot-db")
	}

	if c.ListRuns && c.SnapshotDB == "" {
		return fmt.Errorf("--list-runs requires --snapshot-db")
	}

	if c.ShowDashboard && c.ShowProgress {
		return fmt.Errorf("--dashboard and --progress are mutually exclusive")
	}

	return nil
}

// EngineConfig builds the engine configuration: the YAML file over the
// defaults, then the probe flags on top.
func (c *Config) EngineConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}

	cfg.Probe.BatchSize = c.BatchSize
	cfg.Probe.BatchDelay = c.BatchDelay
	cfg.Probe.Timeout = c.Timeout
	cfg.Probe.Retries = c.Retries

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
