package presenter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/WangYihang/Domain-Prioritizer/pkg/application"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/ts"
)

// defaultWidth is used when the terminal size is unknown
const defaultWidth = 100

// TerminalWidth returns the current terminal width, 0 when not a terminal
func TerminalWidth() int {
	size, err := ts.GetSize()
	if err != nil {
		return 0
	}
	return size.Col()
}

func renderWidth(width int) int {
	if width <= 0 {
		width = TerminalWidth()
	}
	if width <= 0 {
		width = defaultWidth
	}
	return width
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575")).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))

	levelColors = map[entity.PriorityLevel]lipgloss.Color{
		entity.PriorityCritical: lipgloss.Color("#FF6B6B"),
		entity.PriorityHigh:     lipgloss.Color("#FFA94D"),
		entity.PriorityMedium:   lipgloss.Color("#FFD43B"),
		entity.PriorityLow:      lipgloss.Color("#4ECDC4"),
		entity.PrioritySkip:     lipgloss.Color("#626262"),
	}
)

// RenderReport renders a summary report; width <= 0 means the terminal width
func RenderReport(rep *application.Report, width int) string {
	width = renderWidth(width)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(0, 1).
		Width(width - 2)

	if !rep.Success {
		return box.Render(titleStyle.Render("Domain Report") + "\n" + mutedStyle.Render(rep.Error))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Domain Report"))
	b.WriteString(mutedStyle.Render(" generated " + rep.GeneratedAt.Format("2006-01-02 15:04:05")))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Domains:            %d\n", rep.TotalDomains)
	fmt.Fprintf(&b, "Avg Business Score: %.2f\n", rep.AverageBusinessScore)
	fmt.Fprintf(&b, "Avg Priority Score: %.2f\n", rep.AveragePriorityScore)
	fmt.Fprintf(&b, "Accessibility:      %.1f%%\n", rep.AccessibilityRate*100)
	fmt.Fprintf(&b, "Contact Info:       %.1f%%\n", rep.ContactInfoRate*100)
	fmt.Fprintf(&b, "Probe Errors:       %.1f%%\n", rep.ErrorRate*100)
	fmt.Fprintf(&b, "Crawl Budget:       %d pages", rep.TotalCrawlBudget)

	b.WriteString("\n" + sectionStyle.Render("Priority Levels") + "\n")
	for _, level := range entity.PriorityLevels {
		style := lipgloss.NewStyle().Foreground(levelColors[level])
		fmt.Fprintf(&b, "  %s %d\n", style.Render(fmt.Sprintf("%-9s", level)), rep.PriorityLevels[level])
	}

	writeDistribution(&b, "Platforms", stringKeys(rep.Platforms), rep.TotalDomains)
	writeDistribution(&b, "Website Types", stringKeys(rep.WebsiteTypes), rep.TotalDomains)
	writeDistribution(&b, "Industries", rep.Industries, rep.TotalDomains)

	writeList(&b, "Insights", rep.Insights)
	writeList(&b, "Recommendations", rep.Recommendations)

	return box.Render(strings.TrimRight(b.String(), "\n"))
}

func stringKeys[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// writeDistribution prints counts in descending order, ties alphabetically
func writeDistribution(b *strings.Builder, title string, counts map[string]int, total int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	for _, k := range keys {
		share := 0.0
		if total > 0 {
			share = float64(counts[k]) / float64(total) * 100
		}
		fmt.Fprintf(b, "  %-14s %4d  %5.1f%%\n", k, counts[k], share)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}

// queueColumns are the columns of the queue table
var queueColumns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "Domain", Width: 32},
	{Title: "Priority", Width: 9},
	{Title: "Score", Width: 6},
	{Title: "Budget", Width: 6},
	{Title: "Platform", Width: 12},
	{Title: "Type", Width: 12},
}

// QueueTable builds a bubbles table of the queue entries
func QueueTable(q *application.Queue, height int) table.Model {
	rows := make([]table.Row, 0, len(q.Entries))
	for i, r := range q.Entries {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			r.Domain,
			string(r.PriorityLevel),
			strconv.FormatFloat(r.PriorityScore, 'f', 2, 64),
			strconv.Itoa(r.CrawlBudget),
			string(r.PlatformType),
			string(r.WebsiteType),
		})
	}

	if height <= 0 || height > len(rows) {
		height = len(rows)
	}

	t := table.New(
		table.WithColumns(queueColumns),
		table.WithRows(rows),
		table.WithHeight(height+2),
		table.WithFocused(false),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Cell
	t.SetStyles(styles)
	return t
}

// RenderQueue renders up to limit queue entries as a table
func RenderQueue(q *application.Queue, limit int) string {
	if len(q.Entries) == 0 {
		return mutedStyle.Render("Queue is empty")
	}
	title := titleStyle.Render(fmt.Sprintf("Crawl Queue (%d of %d eligible)", len(q.Entries), q.Eligible))
	return title + "\n" + QueueTable(q, limit).View()
}
