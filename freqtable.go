package cvocgen

import (
	"errors"
	"fmt"
)

const (
	// DefaultTableSize is the bucket count used when a caller passes 0.
	DefaultTableSize = 10000
	// DefaultLoadThreshold is the load factor at which the table doubles.
	DefaultLoadThreshold = 0.7
	// maxBuckets caps table growth so a doubling can never overflow.
	maxBuckets = 1 << 30
)

// ErrAllocation is returned when a table cannot grow any further.
var ErrAllocation = errors.New("cvocgen: frequency table allocation failed")

type tableEntry struct {
	key   string
	count int
	next  *tableEntry
}

// FrequencyTable is a chained hash table mapping a token string to an
// occurrence count. Buckets double whenever an insertion would push the
// load factor to the threshold, and never shrink.
type FrequencyTable struct {
	buckets   []*tableEntry
	count     int
	threshold float64
}

// hashKey is a polynomial rolling hash over the key bytes, reduced
// modulo the bucket count.
func hashKey(key string, buckets int) int {
	var value uint64
	for i := 0; i < len(key); i++ {
		value = value*37 + uint64(key[i])
	}
	return int(value % uint64(buckets))
}

// NewFrequencyTable
// Returns a FrequencyTable with the given initial bucket count and load
// threshold. Zero values select the defaults.
func NewFrequencyTable(size int, threshold float64) *FrequencyTable {
	if size <= 0 {
		size = DefaultTableSize
	}
	if threshold <= 0 {
		threshold = DefaultLoadThreshold
	}
	return &FrequencyTable{
		buckets:   make([]*tableEntry, size),
		threshold: threshold,
	}
}

func (ft *FrequencyTable) lookup(key string) *tableEntry {
	entry := ft.buckets[hashKey(key, len(ft.buckets))]
	for entry != nil {
		if entry.key == key {
			return entry
		}
		entry = entry.next
	}
	return nil
}

// Find returns the stored count for key, and whether key is present.
func (ft *FrequencyTable) Find(key string) (int, bool) {
	if entry := ft.lookup(key); entry != nil {
		return entry.count, true
	}
	return 0, false
}

// Len returns the number of distinct keys stored.
func (ft *FrequencyTable) Len() int {
	return ft.count
}

// Buckets returns the current bucket count.
func (ft *FrequencyTable) Buckets() int {
	return len(ft.buckets)
}

// Resize rehashes every entry into a freshly sized bucket array. Counts
// are preserved; relative chain order is not. The table is untouched if
// the new size is rejected.
func (ft *FrequencyTable) Resize(size int) error {
	if size <= 0 || size > maxBuckets {
		return fmt.Errorf("%w: cannot resize to %d buckets", ErrAllocation,
			size)
	}
	buckets := make([]*tableEntry, size)
	for _, entry := range ft.buckets {
		for entry != nil {
			next := entry.next
			slot := hashKey(entry.key, size)
			entry.next = buckets[slot]
			buckets[slot] = entry
			entry = next
		}
	}
	ft.buckets = buckets
	return nil
}

// grow doubles the table if inserting one more distinct key would reach
// the load threshold. Evaluated before the insert, so the invariant
// count/buckets < threshold holds after every completed insertion.
func (ft *FrequencyTable) grow() error {
	if float64(ft.count+1)/float64(len(ft.buckets)) < ft.threshold {
		return nil
	}
	return ft.Resize(len(ft.buckets) * 2)
}

// Add inserts key with count n if absent, otherwise increments the
// stored count by n.
func (ft *FrequencyTable) Add(key string, n int) error {
	if err := ft.grow(); err != nil {
		return err
	}
	if entry := ft.lookup(key); entry != nil {
		entry.count += n
		return nil
	}
	slot := hashKey(key, len(ft.buckets))
	ft.buckets[slot] = &tableEntry{key: key, count: n,
		next: ft.buckets[slot]}
	ft.count++
	return nil
}

// InsertOrIncrement inserts key with count 1 if absent, otherwise
// increments its count.
func (ft *FrequencyTable) InsertOrIncrement(key string) error {
	return ft.Add(key, 1)
}

// Set upserts key to exactly count, overwriting any previous value.
func (ft *FrequencyTable) Set(key string, count int) error {
	if entry := ft.lookup(key); entry != nil {
		entry.count = count
		return nil
	}
	if err := ft.grow(); err != nil {
		return err
	}
	slot := hashKey(key, len(ft.buckets))
	ft.buckets[slot] = &tableEntry{key: key, count: count,
		next: ft.buckets[slot]}
	ft.count++
	return nil
}

// Each calls fn for every key/count pair in bucket order. Iteration
// stops early if fn returns false. The table must not be mutated during
// iteration.
func (ft *FrequencyTable) Each(fn func(key string, count int) bool) {
	for _, entry := range ft.buckets {
		for entry != nil {
			if !fn(entry.key, entry.count) {
				return
			}
			entry = entry.next
		}
	}
}

// Keys returns every stored key in bucket order.
func (ft *FrequencyTable) Keys() []string {
	keys := make([]string, 0, ft.count)
	ft.Each(func(key string, _ int) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
