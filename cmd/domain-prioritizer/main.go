package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/application"
	"github.com/WangYihang/Domain-Prioritizer/pkg/interface/cli"
	"github.com/WangYihang/Domain-Prioritizer/pkg/interface/presenter"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Parse command line flags
	config, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if config.ShowVersion {
		fmt.Println(cli.CurrentVersion())
		return
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           config.Level,
		ReportTimestamp: true,
		Prefix:          "domain-prioritizer",
	})

	if err := run(config, logger); err != nil {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(config *cli.Config, logger *log.Logger) error {
	// Setup context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	assembler := cli.NewAssembler(config, logger)

	var opts []application.Option
	var hooks []cli.StageHook

	var dashboard *presenter.Dashboard
	var progress *presenter.Progress
	switch {
	case config.ShowDashboard:
		dashboard = presenter.NewDashboard()
		opts = append(opts, application.WithObserver(dashboard))
	case config.ShowProgress:
		progress = presenter.NewProgress(os.Stderr)
		opts = append(opts, application.WithObserver(progress))
		hooks = append(hooks, progress)
	}

	app, err := assembler.Assemble(opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	if config.ListRuns {
		return listRuns(ctx, app)
	}

	if config.MetricsAddr != "" {
		srv := serveMetrics(config.MetricsAddr, app.Metrics, logger)
		defer srv.Close()
	}

	urls, err := assembler.LoadURLs()
	if err != nil {
		return fmt.Errorf("failed to load urls: %w", err)
	}

	writer, err := assembler.OpenWriter()
	if err != nil {
		return err
	}
	defer writer.Close()

	runner := cli.NewRunner(config, app, logger, hooks...)

	var queue *application.Queue
	if dashboard != nil {
		// Dashboard owns the terminal, keep logs off it
		logger.SetOutput(io.Discard)

		p := tea.NewProgram(dashboard, tea.WithAltScreen())
		done := make(chan struct{})
		go func() {
			defer close(done)
			queue, err = runner.Run(ctx, urls, writer)
			p.Quit()
		}()

		_, tuiErr := p.Run()
		// quitting the dashboard early stops the run
		cancel()
		<-done
		logger.SetOutput(os.Stderr)
		if tuiErr != nil {
			return fmt.Errorf("TUI error: %w", tuiErr)
		}
	} else {
		queue, err = runner.Run(ctx, urls, writer)
		if progress != nil {
			progress.Wait()
		}
	}

	if errors.Is(err, context.Canceled) {
		logger.Warn("interrupted")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, presenter.RenderQueue(queue, 20))
	fmt.Fprintln(os.Stderr, presenter.RenderReport(app.Engine.Report(), 0))
	return nil
}

func listRuns(ctx context.Context, app *cli.App) error {
	runs, err := app.Snapshots.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s\t%s\t%d records\n", r.RunID, r.CreatedAt.Format(time.RFC3339), r.Records)
	}
	return nil
}

// serveMetrics exposes the engine collectors for Prometheus
func serveMetrics(addr string, registry *prometheus.Registry, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
