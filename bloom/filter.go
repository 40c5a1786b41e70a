// Package bloom provides a probabilistic membership prefilter for URL keys.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter answers "definitely new" or "maybe seen" for string keys.
// False positives are possible; false negatives are not, so callers that
// need exact answers confirm a "maybe seen" with an exact lookup.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a Filter sized for n expected keys with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// MaybeSeen adds key and reports whether it may have been added before.
// A false result means key was definitely new.
func (f *Filter) MaybeSeen(key string) bool {
	return f.f.TestAndAddString(key)
}

// Test reports whether key may have been added, without adding it.
func (f *Filter) Test(key string) bool {
	return f.f.TestString(key)
}
