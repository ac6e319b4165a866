package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/domainservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBloomFilter_Basic(t *testing.T) {
	filter := NewBloomFilter(Config{
		Size:              1000,
		FalsePositiveRate: 0.01,
	})

	testDomain := "example.com"

	if filter.Contains(testDomain) {
		t.Errorf("Filter should not contain %s initially", testDomain)
	}

	filter.Add(testDomain)

	if !filter.Contains(testDomain) {
		t.Errorf("Filter should contain %s after Add", testDomain)
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	normalizer := domainservice.NewNormalizer(domainservice.Config{StripWWW: true, MaxDomainLength: 253})
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewRegistry(normalizer, WithClock(func() time.Time { return fixed }))
}

func TestRegistry_AddDeduplicates(t *testing.T) {
	reg := newTestRegistry(t)

	result := reg.Add([]string{"example.com", "example.com", "example.com"})
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 2, result.Duplicates)
	assert.Equal(t, 0, result.Invalid)
	assert.Equal(t, []string{"example.com"}, result.Domains)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_FirstOccurrenceWins(t *testing.T) {
	reg := newTestRegistry(t)

	result := reg.Add([]string{"http://www.Example.com/page", "https://example.com"})
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Duplicates)

	record, ok := reg.Get("example.com")
	require.True(t, ok)
	assert.Equal(t, "http://www.Example.com/page", record.OriginalURL)
	assert.Equal(t, "example.com", record.RootDomain)
	assert.Equal(t, entity.PriorityMedium, record.PriorityLevel)
	assert.True(t, record.IsAccessible)
}

func TestRegistry_InvalidInputs(t *testing.T) {
	reg := newTestRegistry(t)

	result := reg.Add([]string{"not a domain", "", "good.org"})
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 2, result.Invalid)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "not a domain", result.Failed[0].Domain)
	assert.NotEmpty(t, result.Failed[0].Reason)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Add([]string{"https://shop.example.co.uk/cart?id=1"})

	tests := []struct {
		key  string
		want bool
	}{
		{"shop.example.co.uk", true},
		{"https://shop.example.co.uk/cart?id=1", true},
		{"http://SHOP.example.co.uk:8080/other", true},
		{"www.shop.example.co.uk", true},
		{"other.example.co.uk", false},
		{"garbage input", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			record, ok := reg.Get(tt.key)
			if ok != tt.want {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.key, ok, tt.want)
			}
			if ok && record.Domain != "shop.example.co.uk" {
				t.Errorf("Get(%q).Domain = %q, want shop.example.co.uk", tt.key, record.Domain)
			}
		})
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Add([]string{"example.com"})

	record, ok := reg.Get("example.com")
	require.True(t, ok)
	record.BusinessScore = 0.9
	record.BusinessIndicators = append(record.BusinessIndicators, "mutated")

	again, _ := reg.Get("example.com")
	assert.Zero(t, again.BusinessScore)
	assert.Empty(t, again.BusinessIndicators)
}

func TestRegistry_UpdateAndAssignPriority(t *testing.T) {
	normalizer := domainservice.NewNormalizer(domainservice.Config{StripWWW: true})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := NewRegistry(normalizer, WithClock(func() time.Time { return now }))
	reg.Add([]string{"example.com"})

	now = now.Add(time.Hour)
	score := 1.7
	ok := reg.Update("https://example.com", entity.Patch{
		BusinessScore:            &score,
		AppendBusinessIndicators: []string{entity.IndicatorContactInfo},
	})
	require.True(t, ok)

	record, _ := reg.Get("example.com")
	assert.Equal(t, 1.0, record.BusinessScore)
	assert.True(t, record.HasContactInfo())
	assert.Equal(t, now, record.LastUpdated)
	assert.True(t, record.LastUpdated.After(record.CreatedAt))

	assert.False(t, reg.Update("missing.com", entity.Patch{}))

	require.True(t, reg.AssignPriority("example.com", 0.75, entity.PriorityHigh, 15))
	record, _ = reg.Get("example.com")
	assert.Equal(t, 0.75, record.PriorityScore)
	assert.Equal(t, entity.PriorityHigh, record.PriorityLevel)
	assert.Equal(t, 15, record.CrawlBudget)
}

func TestRegistry_InsertionOrder(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Add([]string{"c.com", "a.com", "b.com", "a.com"})

	assert.Equal(t, []string{"c.com", "a.com", "b.com"}, reg.Domains())

	records := reg.Records()
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, i, r.Seq)
	}
}

func TestRegistry_Restore(t *testing.T) {
	src := newTestRegistry(t)
	src.Add([]string{"a.com", "b.com"})
	src.AssignPriority("b.com", 0.9, entity.PriorityCritical, 20)

	dst := newTestRegistry(t)
	dst.Add([]string{"b.com"})
	result := dst.Restore(src.Records())

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, []string{"b.com", "a.com"}, dst.Domains())

	record, ok := dst.Get("b.com")
	require.True(t, ok)
	assert.Equal(t, entity.PriorityMedium, record.PriorityLevel, "existing record must not be overwritten")
}

func TestJSONLWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")

	w, err := NewJSONLWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(map[string]any{"domain": "a.com", "priority": "high"}))
	require.NoError(t, w.Write(map[string]any{"domain": "b.com", "priority": "low"}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		domains = append(domains, entry["domain"].(string))
	}
	assert.Equal(t, []string{"a.com", "b.com"}, domains)
}

func TestSQLiteSnapshotStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "runs", "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()

	reg := newTestRegistry(t)
	reg.Add([]string{"a.com", "b.com", "c.com"})
	score := 0.6
	reg.Update("b.com", entity.Patch{BusinessScore: &score, AppendIndustryHints: []string{"retail"}})

	runID, err := store.Save(ctx, reg.Records())
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	loaded, err := store.Load(ctx, runID)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "a.com", loaded[0].Domain)
	assert.Equal(t, "b.com", loaded[1].Domain)
	assert.Equal(t, 0.6, loaded[1].BusinessScore)
	assert.Equal(t, []string{"retail"}, loaded[1].IndustryHints)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, 3, runs[0].Records)

	_, err = store.Load(ctx, "does-not-exist")
	assert.Error(t, err)
}
