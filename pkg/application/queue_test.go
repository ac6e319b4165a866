package application

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedQueue registers 3 critical, 4 high and 10 medium domains
func seedQueue(t *testing.T, e *Engine) {
	t.Helper()

	var urls []string
	for i := 0; i < 10; i++ {
		urls = append(urls, fmt.Sprintf("medium%d.com", i))
	}
	for i := 0; i < 4; i++ {
		urls = append(urls, fmt.Sprintf("high%d.com", i))
	}
	for i := 0; i < 3; i++ {
		urls = append(urls, fmt.Sprintf("https://critical%d.com/shop", i))
	}
	e.AddURLs(urls)

	for i := 0; i < 10; i++ {
		setRecord(t, e, fmt.Sprintf("medium%d.com", i), entity.WebsiteBusiness, entity.PlatformWordPress, 0.6, true)
	}
	for i := 0; i < 4; i++ {
		setRecord(t, e, fmt.Sprintf("high%d.com", i), entity.WebsiteBusiness, entity.PlatformWordPress, 0.9-float64(i)*0.01, true)
	}
	for i := 0; i < 3; i++ {
		setRecord(t, e, fmt.Sprintf("critical%d.com", i), entity.WebsiteEcommerce, entity.PlatformShopify, 0.9, true)
	}
}

func assertSorted(t *testing.T, entries []*entity.DomainRecord) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].PriorityScore, entries[i].PriorityScore,
			"entry %d (%s) sorts before %d (%s)", i-1, entries[i-1].Domain, i, entries[i].Domain)
	}
}

func TestEngine_BuildQueue_FiltersAndTruncates(t *testing.T) {
	e := newTestEngine(t)
	seedQueue(t, e)

	q := e.BuildQueue([]entity.PriorityLevel{entity.PriorityHigh, entity.PriorityCritical}, 5)
	require.True(t, q.Success)
	assert.Equal(t, 7, q.Eligible)
	require.Len(t, q.Entries, 5)
	assertSorted(t, q.Entries)

	for _, r := range q.Entries {
		assert.Contains(t, []entity.PriorityLevel{entity.PriorityHigh, entity.PriorityCritical}, r.PriorityLevel)
	}

	// critical domains tie on score and keep insertion order
	assert.Equal(t, "critical0.com", q.Entries[0].Domain)
	assert.Equal(t, "critical1.com", q.Entries[1].Domain)
	assert.Equal(t, "critical2.com", q.Entries[2].Domain)
	assert.Equal(t, "high0.com", q.Entries[3].Domain)
	assert.Equal(t, "high1.com", q.Entries[4].Domain)
}

func TestEngine_BuildQueue_DefaultExcludesSkip(t *testing.T) {
	e := newTestEngine(t)
	e.AddURLs([]string{"good.com", "dead.com"})
	setRecord(t, e, "good.com", entity.WebsiteBusiness, entity.PlatformCustom, 0.7, true)
	setRecord(t, e, "dead.com", entity.WebsiteUnknown, entity.PlatformUnknown, 0, false)

	q := e.BuildQueue(nil, 0)
	require.True(t, q.Success)
	require.Len(t, q.Entries, 1)
	assert.Equal(t, "good.com", q.Entries[0].Domain)
	assert.Equal(t, DefaultQueueFilters(), q.Filters)

	all := e.BuildQueue([]entity.PriorityLevel{entity.PrioritySkip}, 0)
	require.Len(t, all.Entries, 1)
	assert.Equal(t, "dead.com", all.Entries[0].Domain)
}

func TestEngine_BuildQueue_AlwaysFresh(t *testing.T) {
	e := newTestEngine(t)
	e.AddURLs([]string{"a.com"})
	setRecord(t, e, "a.com", entity.WebsiteBusiness, entity.PlatformWix, 0.2, true)

	q := e.BuildQueue(nil, 0)
	require.Len(t, q.Entries, 1)
	assert.Equal(t, entity.PriorityLow, q.Entries[0].PriorityLevel)

	setRecord(t, e, "a.com", entity.WebsiteBusiness, entity.PlatformWix, 1.0, true)
	q = e.BuildQueue(nil, 0)
	require.Len(t, q.Entries, 1)
	assert.Equal(t, entity.PriorityHigh, q.Entries[0].PriorityLevel)
}

func TestQueue_Export(t *testing.T) {
	e := newTestEngine(t)
	seedQueue(t, e)
	q := e.BuildQueue([]entity.PriorityLevel{entity.PriorityCritical}, 0)
	require.Len(t, q.Entries, 3)

	t.Run("json", func(t *testing.T) {
		payload, err := q.Export(FormatJSON)
		require.NoError(t, err)
		records := payload.([]*entity.DomainRecord)
		assert.Len(t, records, 3)
	})

	t.Run("csv_data", func(t *testing.T) {
		payload, err := q.Export(FormatCSVData)
		require.NoError(t, err)
		data := payload.(CSVData)
		assert.Equal(t, CSVHeaders, data.Headers)
		require.Len(t, data.Rows, 3)
		for _, header := range data.Headers {
			assert.Contains(t, data.Rows[0], header)
		}
		assert.Equal(t, "1", data.Rows[0]["queue_position"])
		assert.Equal(t, "critical0.com", data.Rows[0]["domain"])
		assert.Equal(t, "critical", data.Rows[0]["priority_level"])
		assert.Equal(t, "20", data.Rows[0]["crawl_budget"])
	})

	t.Run("sitecrawler_format", func(t *testing.T) {
		payload, err := q.Export(FormatSiteCrawler)
		require.NoError(t, err)
		entries := payload.([]SiteCrawlerEntry)
		require.Len(t, entries, 3)
		assert.Equal(t, "critical0.com", entries[0].Domain)
		assert.Equal(t, "https://critical0.com/shop", entries[0].URL)
		assert.Equal(t, 20, entries[0].MaxPages)
		assert.Equal(t, "critical", entries[0].Priority)
		assert.Equal(t, entity.PlatformShopify, entries[0].PlatformType)
		assert.Equal(t, 3, entries[2].Metadata.QueuePosition)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := q.Export("xml")
		assert.ErrorIs(t, err, entity.ErrUnknownExportFormat)
	})

	items, err := q.Items(FormatSiteCrawler)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    ExportFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" CSV_DATA ", FormatCSVData, false},
		{"sitecrawler_format", FormatSiteCrawler, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseExportFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseExportFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseExportFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEngine_Report(t *testing.T) {
	e := newTestEngine(t)
	e.AddURLs([]string{"a.com", "b.com", "c.com", "d.com"})
	setRecord(t, e, "a.com", entity.WebsiteBusiness, entity.PlatformWordPress, 0.8, true)
	setRecord(t, e, "b.com", entity.WebsiteBusiness, entity.PlatformWordPress, 0.6, true)
	setRecord(t, e, "c.com", entity.WebsiteBlog, entity.PlatformGhost, 0.2, true)
	require.True(t, e.Registry().Update("d.com", entity.Patch{
		IsAccessible:           boolPtr(false),
		AppendExclusionReasons: []string{"probe_error: timeout"},
	}))
	require.True(t, e.Registry().Update("a.com", entity.Patch{
		AppendBusinessIndicators: []string{entity.IndicatorContactInfo},
		AppendIndustryHints:      []string{"legal"},
	}))
	e.Prioritize()

	before := e.Registry().Records()
	rep := e.Report()
	require.True(t, rep.Success)
	assert.Equal(t, before, e.Registry().Records(), "report must not mutate state")

	assert.Equal(t, 4, rep.TotalDomains)
	assert.Equal(t, 2, rep.Platforms[entity.PlatformWordPress])
	assert.Equal(t, 2, rep.WebsiteTypes[entity.WebsiteBusiness])
	assert.Equal(t, 1, rep.Industries["legal"])
	assert.InDelta(t, 0.4, rep.AverageBusinessScore, 1e-9)
	assert.InDelta(t, 0.75, rep.AccessibilityRate, 1e-9)
	assert.InDelta(t, 0.25, rep.ContactInfoRate, 1e-9)
	assert.InDelta(t, 0.25, rep.ErrorRate, 1e-9)

	assert.Contains(t, rep.Insights, "WordPress dominates the platform landscape at 50.0%")
	assert.Contains(t, rep.Insights, "Most common industry is legal with 1 domains")
	assert.Contains(t, rep.Recommendations, "Accessibility is low at 75.0%; retry failed domains with a longer timeout")
	assert.Contains(t, rep.Recommendations, "Probe error rate is 25.0%; lower the request rate or raise retries")
}

func TestEngine_Snapshot(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	e := newTestEngine(t)
	_, err = e.SaveSnapshot(ctx, store)
	assert.ErrorIs(t, err, entity.ErrEmptyRegistry)

	e.AddURLs([]string{"a.com", "b.com"})
	setRecord(t, e, "a.com", entity.WebsiteEcommerce, entity.PlatformShopify, 0.9, true)
	runID, err := e.SaveSnapshot(ctx, store)
	require.NoError(t, err)

	fresh := newTestEngine(t)
	loaded := fresh.LoadSnapshot(ctx, store, runID)
	require.True(t, loaded.Success)
	assert.Equal(t, 2, loaded.Added)
	assert.Equal(t, []string{"a.com", "b.com"}, fresh.Registry().Domains())

	q := fresh.BuildQueue(nil, 1)
	require.Len(t, q.Entries, 1)
	assert.Equal(t, "a.com", q.Entries[0].Domain)
	assert.Equal(t, entity.PriorityCritical, q.Entries[0].PriorityLevel)

	missing := fresh.LoadSnapshot(ctx, store, "nope")
	assert.False(t, missing.Success)
	assert.NotEmpty(t, missing.Error)
}
