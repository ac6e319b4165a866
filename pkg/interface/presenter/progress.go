package presenter

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress renders one mpb bar per probing stage
type Progress struct {
	progress *mpb.Progress
	bars     map[string]*stageBar
	mu       sync.Mutex
}

type stageBar struct {
	bar    *mpb.Bar
	errors atomic.Int64
}

// NewProgress creates progress bars writing to out, sized to the terminal
func NewProgress(out io.Writer) *Progress {
	opts := []mpb.ContainerOption{mpb.WithOutput(out)}
	if width := TerminalWidth(); width > 0 {
		opts = append(opts, mpb.WithWidth(width/2))
	}
	return &Progress{
		progress: mpb.New(opts...),
		bars:     make(map[string]*stageBar),
	}
}

// Start adds a bar for stage expecting total domains
func (p *Progress) Start(stage string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sb := &stageBar{}
	sb.bar = p.progress.AddBar(int64(total),
		mpb.BarOptional(mpb.BarRemoveOnComplete(), false),
		mpb.PrependDecorators(
			decor.Name(stage, decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf("errors: %d", sb.errors.Load())
			}, decor.WCSyncSpace),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncSpace), "done",
			),
		),
	)
	p.bars[stage] = sb
}

// Finish completes the bar of stage at its current count
func (p *Progress) Finish(stage string) {
	p.mu.Lock()
	sb, ok := p.bars[stage]
	p.mu.Unlock()
	if ok {
		sb.bar.SetTotal(-1, true)
	}
}

// Wait blocks until every bar has been rendered for the last time
func (p *Progress) Wait() {
	p.mu.Lock()
	for _, sb := range p.bars {
		if !sb.bar.Completed() {
			sb.bar.Abort(false)
		}
	}
	p.mu.Unlock()
	p.progress.Wait()
}

// OnMetricsUpdate implements application.MetricsObserver
func (p *Progress) OnMetricsUpdate(*entity.Metrics) {}

// OnDomainProcessed implements application.MetricsObserver
func (p *Progress) OnDomainProcessed(stage, domain string, err error) {
	p.mu.Lock()
	sb, ok := p.bars[stage]
	p.mu.Unlock()
	if !ok {
		return
	}
	if err != nil {
		sb.errors.Add(1)
	}
	sb.bar.Increment()
}
