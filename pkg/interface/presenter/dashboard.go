package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxRecent bounds the recent results panel
const maxRecent = 50

// recentResult is one processed domain shown in the recent panel
type recentResult struct {
	stage  string
	domain string
	err    error
}

// Dashboard is a TUI dashboard for probing progress
type Dashboard struct {
	metrics   *entity.Metrics
	recent    []recentResult
	width     int
	height    int
	startTime time.Time
	now       func() time.Time
	mu        sync.RWMutex
}

type tickMsg time.Time

// NewDashboard creates a new TUI dashboard
func NewDashboard() *Dashboard {
	return &Dashboard{
		metrics:   &entity.Metrics{},
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Init initializes the dashboard
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tickMsg:
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	header := d.renderHeader()
	footer := d.renderFooter()

	availableHeight := d.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if availableHeight < 0 {
		availableHeight = 0
	}
	halfHeight := availableHeight / 2
	leftWidth := d.width / 2
	rightWidth := d.width - leftWidth

	// Registry (left) | Probing (right)
	row1 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderRegistryStats(leftWidth, halfHeight),
		d.renderProbeStats(rightWidth, halfHeight),
	)

	// Active domains (left) | Recent results (right)
	remainingHeight := availableHeight - halfHeight
	row2 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderActive(leftWidth, remainingHeight),
		d.renderRecent(rightWidth, remainingHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, row1, row2, footer)
}

// OnMetricsUpdate implements application.MetricsObserver
func (d *Dashboard) OnMetricsUpdate(metrics *entity.Metrics) {
	d.mu.Lock()
	d.metrics = metrics
	d.mu.Unlock()
}

// OnDomainProcessed implements application.MetricsObserver
func (d *Dashboard) OnDomainProcessed(stage, domain string, err error) {
	d.mu.Lock()
	d.recent = append(d.recent, recentResult{stage: stage, domain: domain, err: err})
	if len(d.recent) > maxRecent {
		d.recent = d.recent[len(d.recent)-maxRecent:]
	}
	d.mu.Unlock()
}

func panelStyle(color string, width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(1, 2).
		Width(max(width-2, 0)). // border
		Height(max(height-2, 0))
}

func (d *Dashboard) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	now := d.now()
	stage := d.metrics.Stage
	if stage == "" {
		stage = "idle"
	}

	title := titleStyle.Render("Domain Prioritizer")
	info := timeStyle.Render(fmt.Sprintf(" Stage: %s | Running: %s | Time: %s",
		stage, formatElapsed(now.Sub(d.startTime)), now.Format("15:04:05")))

	return title + info
}

func formatElapsed(elapsed time.Duration) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func (d *Dashboard) renderRegistryStats(width, height int) string {
	m := d.metrics
	stats := []string{
		"Registry",
		"",
		fmt.Sprintf("Registered:        %d", m.RegisteredCount),
		fmt.Sprintf("Duplicates:        %d", m.DuplicateCount),
		fmt.Sprintf("Invalid:           %d", m.InvalidCount),
	}

	total := m.RegisteredCount + m.DuplicateCount + m.InvalidCount
	if total > 0 {
		stats = append(stats,
			"",
			fmt.Sprintf("Unique Rate:       %.1f%%", float64(m.RegisteredCount)/float64(total)*100),
		)
	}

	return panelStyle("#874BFD", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderProbeStats(width, height int) string {
	m := d.metrics
	stats := []string{
		"Probing",
		"",
		fmt.Sprintf("Platform Probed:   %d", m.PlatformProbed),
		fmt.Sprintf("Business Scored:   %d", m.BusinessScored),
		fmt.Sprintf("Errors:            %d", m.ErrorCount),
		fmt.Sprintf("Batches:           %d / %d", m.BatchesDone, m.BatchesTotal),
	}

	elapsed := d.now().Sub(d.startTime).Seconds()
	if elapsed > 0 {
		rate := float64(m.PlatformProbed+m.BusinessScored+m.ErrorCount) / elapsed
		stats = append(stats,
			"",
			fmt.Sprintf("Probe Rate:        %.1f domains/s", rate),
		)
	}

	if done := m.PlatformProbed + m.BusinessScored + m.ErrorCount; done > 0 {
		stats = append(stats,
			fmt.Sprintf("Success Rate:      %.1f%%", float64(done-m.ErrorCount)/float64(done)*100),
		)
	}

	return panelStyle("#FF6B6B", width, height).Render(strings.Join(stats, "\n"))
}

func (d *Dashboard) renderActive(width, height int) string {
	active := d.metrics.ActiveDomains
	lines := []string{
		fmt.Sprintf("In Flight (%d)", len(active)),
		"",
	}
	if len(active) == 0 {
		lines = append(lines, "Nothing in flight")
	}
	for i, domain := range active {
		if i >= max(height-6, 0) {
			break
		}
		lines = append(lines, "  • "+domain)
	}

	return panelStyle("#4ECDC4", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderRecent(width, height int) string {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	lines := []string{
		fmt.Sprintf("Recent Results (%d)", len(d.recent)),
		"",
	}

	if len(d.recent) == 0 {
		lines = append(lines, "No domains processed yet...")
	} else {
		// border, padding, title and blank line
		maxShow := max(height-6, 0)
		start := max(len(d.recent)-maxShow, 0)
		for _, r := range d.recent[start:] {
			if r.err != nil {
				lines = append(lines, errStyle.Render(fmt.Sprintf("  ✗ [%s] %s: %v", r.stage, r.domain, r.err)))
			} else {
				lines = append(lines, okStyle.Render(fmt.Sprintf("  ✓ [%s] %s", r.stage, r.domain)))
			}
		}
	}

	return panelStyle("#04B575", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	return footerStyle.Render("Press 'q' or 'Ctrl+C' to quit")
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
