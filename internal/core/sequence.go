package core

import (
	"math/rand/v2"
	"slices"
	"sync"

	"erpcore/pkg/domain"
)

// Sequencer holds the per-type id counters of one instance. Each counter keeps
// the last issued id; the first id handed out is 1 and retired ids are never
// reissued. A Sequencer is guarded by the owning Store's lock.
type Sequencer struct {
	last map[domain.EntityType]int
}

// NewSequencer returns a sequencer with every counter at zero.
func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[domain.EntityType]int, len(domain.CountedEntities))}
}

// Next issues the next id for the entity type.
func (s *Sequencer) Next(entity domain.EntityType) int {
	s.last[entity]++
	return s.last[entity]
}

// Last returns the most recently issued id for the entity type.
func (s *Sequencer) Last(entity domain.EntityType) int {
	return s.last[entity]
}

// Raise moves the counter forward so that it is at least value. Counters never move backwards.
func (s *Sequencer) Raise(entity domain.EntityType, value int) {
	if value > s.last[entity] {
		s.last[entity] = value
	}
}

// Counters returns a copy of all counters.
func (s *Sequencer) Counters() map[domain.EntityType]int {
	out := make(map[domain.EntityType]int, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

// OrderItemSequence issues order-line ids. Unlike the per-type counters it is
// safe for concurrent use and may be shared by several stores.
type OrderItemSequence struct {
	mu   sync.Mutex
	last int
}

// NewOrderItemSequence returns a sequence whose next id is last+1.
func NewOrderItemSequence(last int) *OrderItemSequence {
	return &OrderItemSequence{last: last}
}

// Next issues the next order-line id.
func (q *OrderItemSequence) Next() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.last++
	return q.last
}

// Last returns the most recently issued id.
func (q *OrderItemSequence) Last() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}

// Raise moves the sequence forward so that it is at least value.
func (q *OrderItemSequence) Raise(value int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if value > q.last {
		q.last = value
	}
}

// Scanner id bounds. Generated codes always have twelve digits.
const (
	ScannerIDMin int64 = 100_000_000_000
	ScannerIDMax int64 = 999_999_999_999
)

// ScannerSource produces candidate scanner ids.
type ScannerSource func() int64

// RandomScannerSource draws uniformly from [ScannerIDMin, ScannerIDMax].
func RandomScannerSource() int64 {
	return ScannerIDMin + rand.Int64N(ScannerIDMax-ScannerIDMin+1)
}

// ScannerRegistry remembers every scanner id issued by an instance, including
// those of deleted articles, so that a code is never handed out twice.
type ScannerRegistry struct {
	issued map[int64]struct{}
	source ScannerSource
}

// NewScannerRegistry returns an empty registry drawing candidates from source.
func NewScannerRegistry(source ScannerSource) *ScannerRegistry {
	if source == nil {
		source = RandomScannerSource
	}
	return &ScannerRegistry{issued: make(map[int64]struct{}), source: source}
}

// Issue draws candidates until an unused one is found and records it.
func (r *ScannerRegistry) Issue() int64 {
	for {
		candidate := r.source()
		if candidate < ScannerIDMin || candidate > ScannerIDMax {
			continue
		}
		if r.Reserve(candidate) {
			return candidate
		}
	}
}

// Reserve records id as issued. It reports false when the id was already taken.
func (r *ScannerRegistry) Reserve(id int64) bool {
	if _, ok := r.issued[id]; ok {
		return false
	}
	r.issued[id] = struct{}{}
	return true
}

// Issued returns every recorded id in ascending order.
func (r *ScannerRegistry) Issued() []int64 {
	out := make([]int64, 0, len(r.issued))
	for id := range r.issued {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of recorded ids.
func (r *ScannerRegistry) Len() int {
	return len(r.issued)
}
