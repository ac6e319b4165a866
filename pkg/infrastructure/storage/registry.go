package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
)

// Registry is the in-memory store of domain records keyed by canonical domain.
// Records never leave the registry by reference; readers get clones and writers
// go through Update or AssignPriority under the registry lock.
type Registry struct {
	mu         sync.RWMutex
	normalizer service.DomainNormalizer
	filter     repository.DomainFilter
	records    map[string]*entity.DomainRecord
	order      []string
	urlIndex   map[string]string
	now        func() time.Time
}

var _ repository.DomainRegistry = (*Registry)(nil)

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithFilter replaces the default Bloom pre-check filter
func WithFilter(filter repository.DomainFilter) RegistryOption {
	return func(r *Registry) { r.filter = filter }
}

// WithClock sets the time source used for record timestamps
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry
func NewRegistry(normalizer service.DomainNormalizer, opts ...RegistryOption) *Registry {
	r := &Registry{
		normalizer: normalizer,
		records:    make(map[string]*entity.DomainRecord),
		urlIndex:   make(map[string]string),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.filter == nil {
		r.filter = NewBloomFilter(DefaultFilterConfig)
	}
	return r
}

// Add normalizes each input and registers unseen domains. The first occurrence
// wins; later inputs for the same domain are counted as duplicates.
func (r *Registry) Add(urls []string) entity.AddResult {
	result := entity.AddResult{Domains: []string{}}

	for _, raw := range urls {
		domain, err := r.normalizer.Normalize(raw)
		if err != nil {
			result.Invalid++
			result.Failed = append(result.Failed, entity.FailedItem{Domain: raw, Reason: err.Error()})
			continue
		}

		if r.insert(domain, raw) {
			result.Added++
			result.Domains = append(result.Domains, domain)
		} else {
			result.Duplicates++
		}
	}

	return result
}

func (r *Registry) insert(domain, raw string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.TrimSpace(raw)
	if r.filter.Contains(domain) {
		if _, ok := r.records[domain]; ok {
			if _, indexed := r.urlIndex[key]; !indexed {
				r.urlIndex[key] = domain
			}
			return false
		}
	}

	record := entity.NewDomainRecord(domain, key, r.normalizer.RootDomain(domain), r.now())
	record.Seq = len(r.order)
	r.records[domain] = record
	r.order = append(r.order, domain)
	r.urlIndex[key] = domain
	r.filter.Add(domain)
	return true
}

// Restore inserts previously saved records as-is, keeping their fields.
// Domains already present are counted as duplicates and left untouched.
func (r *Registry) Restore(records []*entity.DomainRecord) entity.AddResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := entity.AddResult{Domains: []string{}}
	for _, saved := range records {
		if saved == nil || saved.Domain == "" {
			result.Invalid++
			continue
		}
		if _, ok := r.records[saved.Domain]; ok {
			result.Duplicates++
			continue
		}

		record := saved.Clone()
		record.Seq = len(r.order)
		r.records[record.Domain] = record
		r.order = append(r.order, record.Domain)
		if record.OriginalURL != "" {
			r.urlIndex[record.OriginalURL] = record.Domain
		}
		r.filter.Add(record.Domain)
		result.Added++
		result.Domains = append(result.Domains, record.Domain)
	}
	return result
}

// Resolve maps a canonical domain, a registered URL or any URL normalizing to
// a known domain onto its canonical key.
func (r *Registry) Resolve(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(key)
}

func (r *Registry) resolveLocked(key string) (string, bool) {
	if _, ok := r.records[key]; ok {
		return key, true
	}

	trimmed := strings.TrimSpace(key)
	if domain, ok := r.urlIndex[trimmed]; ok {
		return domain, true
	}

	domain, err := r.normalizer.Normalize(trimmed)
	if err != nil || !r.filter.Contains(domain) {
		return "", false
	}
	if _, ok := r.records[domain]; ok {
		return domain, true
	}
	return "", false
}

// Get returns a copy of the record for key
func (r *Registry) Get(key string) (*entity.DomainRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domain, ok := r.resolveLocked(key)
	if !ok {
		return nil, false
	}
	return r.records[domain].Clone(), true
}

// Update applies a patch and refreshes last_updated; false if key is unknown
func (r *Registry) Update(key string, patch entity.Patch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	domain, ok := r.resolveLocked(key)
	if !ok {
		return false
	}

	record := r.records[domain]
	patch.Apply(record)
	record.LastUpdated = r.now()
	return true
}

// AssignPriority writes the derived priority fields of a record.
// Only the priority calculator calls this.
func (r *Registry) AssignPriority(domain string, score float64, level entity.PriorityLevel, budget int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[domain]
	if !ok {
		return false
	}
	record.PriorityScore = entity.Clamp01(score)
	record.PriorityLevel = level
	record.CrawlBudget = budget
	record.LastUpdated = r.now()
	return true
}

// Domains returns canonical domains in insertion order
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Records returns copies of all records in insertion order
func (r *Registry) Records() []*entity.DomainRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*entity.DomainRecord, 0, len(r.order))
	for _, domain := range r.order {
		records = append(records, r.records[domain].Clone())
	}
	return records
}

// Len returns the number of registered domains
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
