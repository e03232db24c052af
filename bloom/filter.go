// Package bloom provides a probabilistic prefilter for URL membership.
// A negative answer is definitive, so callers can skip exact lookups for
// URLs that were never recorded.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by normalized URL.
// It is not safe for concurrent use; callers hold their own lock.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a Filter sized for n expected URLs at the given false
// positive rate. Exceeding n only raises the false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add records url.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// MayContain reports whether url might have been recorded.
// False means url was definitely never added.
func (f *Filter) MayContain(url string) bool {
	return f.f.TestString(url)
}

// TestAndAdd records url and reports whether it might have been recorded
// before the call.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestAndAddString(url)
}

// Approx returns the approximate number of distinct URLs recorded.
func (f *Filter) Approx() uint {
	return uint(f.f.ApproximatedSize())
}
