package storage

import (
	"sync"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter implements repository.DomainFilter using a Bloom filter
type BloomFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// Config holds Bloom filter configuration
type Config struct {
	Size              uint
	FalsePositiveRate float64
}

// DefaultFilterConfig sizes the filter for a typical classification run
var DefaultFilterConfig = Config{Size: 100000, FalsePositiveRate: 0.001}

// NewBloomFilter creates a new Bloom filter
func NewBloomFilter(config Config) repository.DomainFilter {
	if config.Size == 0 {
		config.Size = DefaultFilterConfig.Size
	}
	if config.FalsePositiveRate <= 0 || config.FalsePositiveRate >= 1 {
		config.FalsePositiveRate = DefaultFilterConfig.FalsePositiveRate
	}
	return &BloomFilter{
		filter: bloom.NewWithEstimates(config.Size, config.FalsePositiveRate),
	}
}

// Contains checks if a domain may have been seen before
func (bf *BloomFilter) Contains(domain string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.TestString(domain)
}

// Add adds a domain to the filter
func (bf *BloomFilter) Add(domain string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.filter.AddString(domain)
}
