package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/WangYihang/Domain-Prioritizer/pkg/application"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
	"github.com/charmbracelet/log"
)

// StageHook is told when a probing round starts and ends
type StageHook interface {
	Start(stage string, total int)
	Finish(stage string)
}

// Runner drives one pass: add, probe, score, prioritize, queue, export
type Runner struct {
	config *Config
	app    *App
	logger *log.Logger
	hooks  []StageHook
}

// NewRunner creates a runner over an assembled app
func NewRunner(config *Config, app *App, logger *log.Logger, hooks ...StageHook) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{config: config, app: app, logger: logger, hooks: hooks}
}

// Run classifies urls and writes the crawl queue to writer. The queue is
// returned even when the snapshot could not be saved.
func (r *Runner) Run(ctx context.Context, urls []string, writer repository.RecordWriter) (*application.Queue, error) {
	engine := r.app.Engine

	if r.config.LoadRun != "" {
		loaded := engine.LoadSnapshot(ctx, r.app.Snapshots, r.config.LoadRun)
		if !loaded.Success {
			return nil, errors.New(loaded.Error)
		}
	}

	added := engine.AddURLs(urls)
	r.logger.Info("input", "urls", len(urls), "added", added.Added, "duplicates", added.Duplicates, "invalid", added.Invalid)

	total := engine.Registry().Len()
	if total == 0 {
		return nil, entity.ErrEmptyRegistry
	}

	if !r.config.SkipPlatform {
		r.start(application.StagePlatform, total)
		result := engine.ProbePlatforms(ctx, nil, r.config.BatchSize)
		r.finish(application.StagePlatform)
		if !result.Success {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("platform round: %s", result.Error)
		}
		r.logger.Info("platform round done", "updated", result.Updated, "failed", len(result.Failed))
	}

	if !r.config.SkipBusiness {
		r.start(application.StageBusiness, total)
		result := engine.ScoreBusiness(ctx, nil, nil, r.config.BatchSize)
		r.finish(application.StageBusiness)
		if !result.Success {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("business round: %s", result.Error)
		}
		r.logger.Info("business round done", "updated", result.Updated, "failed", len(result.Failed))
	}

	queue := engine.BuildQueue(r.config.PriorityLevels, r.config.MaxDomains)
	if !queue.Success {
		return nil, errors.New(queue.Error)
	}

	items, err := queue.Items(r.config.ExportFormat)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := writer.Write(item); err != nil {
			return nil, fmt.Errorf("write queue: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("flush queue: %w", err)
	}

	if r.app.Snapshots != nil {
		runID, err := engine.SaveSnapshot(ctx, r.app.Snapshots)
		if err != nil {
			return queue, err
		}
		r.logger.Info("snapshot saved", "run", runID)
	}

	return queue, nil
}

func (r *Runner) start(stage string, total int) {
	for _, h := range r.hooks {
		h.Start(stage, total)
	}
}

func (r *Runner) finish(stage string) {
	for _, h := range r.hooks {
		h.Finish(stage)
	}
}
