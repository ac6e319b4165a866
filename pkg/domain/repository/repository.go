package repository

import (
	"context"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
)

// DomainFilter provides a fast membership pre-check for canonical domains
type DomainFilter interface {
	// Contains reports whether a domain may have been seen before
	Contains(domain string) bool
	// Add adds a domain to the filter
	Add(domain string)
}

// RecordWriter writes exported queue entries or records
type RecordWriter interface {
	// Write writes a single entry
	Write(entry any) error
	// Flush ensures all buffered data is written
	Flush() error
	// Close closes the writer
	Close() error
}

// RunInfo describes a saved registry snapshot
type RunInfo struct {
	RunID     string
	Records   int
	CreatedAt time.Time
}

// SnapshotStore saves and restores registry contents under a run ID
type SnapshotStore interface {
	// Save stores records and returns the generated run ID
	Save(ctx context.Context, records []*entity.DomainRecord) (string, error)
	// Load returns the records of a run in insertion order
	Load(ctx context.Context, runID string) ([]*entity.DomainRecord, error)
	// ListRuns returns saved runs, newest first
	ListRuns(ctx context.Context) ([]RunInfo, error)
	// Close releases the store
	Close() error
}

// DomainRegistry is the store of domain records keyed by canonical domain.
// Readers always receive copies.
type DomainRegistry interface {
	// Add normalizes and registers inputs; the first occurrence of a domain wins
	Add(urls []string) entity.AddResult
	// Restore inserts saved records without normalizing them again
	Restore(records []*entity.DomainRecord) entity.AddResult
	// Resolve maps a domain or URL onto its canonical key
	Resolve(key string) (string, bool)
	// Get returns a copy of the record for a domain or URL
	Get(key string) (*entity.DomainRecord, bool)
	// Update applies a patch and refreshes last_updated
	Update(key string, patch entity.Patch) bool
	// AssignPriority writes the derived priority fields
	AssignPriority(domain string, score float64, level entity.PriorityLevel, budget int) bool
	// Domains returns canonical domains in insertion order
	Domains() []string
	// Records returns copies of all records in insertion order
	Records() []*entity.DomainRecord
	// Len returns the number of registered domains
	Len() int
}
