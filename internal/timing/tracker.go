// Package timing accumulates per-stage durations across pipeline runs.
package timing

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Summary aggregates the samples of one operation.
type Summary struct {
	Operation string
	Count     int
	Total     time.Duration
	Mean      time.Duration
	Max       time.Duration
}

type Tracker struct {
	mu      sync.RWMutex
	timings map[string][]time.Duration
	limit   int
}

// NewTracker keeps at most limit samples per operation; older samples are
// dropped. A limit below one keeps everything.
func NewTracker(limit int) *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		limit:   limit,
	}
}

func (tt *Tracker) Record(operation string, d time.Duration) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	samples := append(tt.timings[operation], d)
	if tt.limit > 0 && len(samples) > tt.limit {
		samples = samples[len(samples)-tt.limit:]
	}
	tt.timings[operation] = samples
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}
	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (tt *Tracker) Summary(operation string) Summary {
	samples := tt.GetTimings(operation)
	s := Summary{Operation: operation, Count: len(samples)}
	if s.Count == 0 {
		return s
	}
	s.Total = lo.Sum(samples)
	s.Mean = s.Total / time.Duration(s.Count)
	s.Max = lo.Max(samples)
	return s
}

// Summaries returns one summary per recorded operation, sorted by name.
func (tt *Tracker) Summaries() []Summary {
	tt.mu.RLock()
	ops := lo.Keys(tt.timings)
	tt.mu.RUnlock()

	sort.Strings(ops)
	return lo.Map(ops, func(op string, _ int) Summary {
		return tt.Summary(op)
	})
}

func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}
