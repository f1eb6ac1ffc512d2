// Package stats aggregates translation lifecycle events into per-day,
// per-provider counters.
package stats

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type EventKind string

const (
	EventSuccess  EventKind = "success"
	EventFailure  EventKind = "failure"
	EventCacheHit EventKind = "cache_hit"
)

// Event is one translation lifecycle notification emitted by the orchestrator.
type Event struct {
	Kind       EventKind
	Provider   string
	Characters int
	Latency    time.Duration
	At         time.Time
}

// Recorder consumes lifecycle events. Recording is best effort; producers
// must never block on it.
type Recorder interface {
	Record(ev Event)
}

// Counters is one bucket of aggregated numbers.
type Counters struct {
	Requests      int64   `json:"requests"`
	Successes     int64   `json:"successes"`
	Failures      int64   `json:"failures"`
	CacheHits     int64   `json:"cache_hits"`
	Characters    int64   `json:"characters"`
	AvgResponseMs float64 `json:"avg_response_ms"`

	timedSamples int64
}

// DayStats groups counters for one UTC day.
type DayStats struct {
	Date      string              `json:"date"`
	Totals    Counters            `json:"totals"`
	Providers map[string]Counters `json:"providers"`
}

// DefaultRetention is how long daily buckets are kept before Cleanup drops them.
const DefaultRetention = 30 * 24 * time.Hour

// Aggregator keeps a rolling window of daily buckets. Safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	days      map[string]*dayBucket
	retention time.Duration
	now       func() time.Time
}

type dayBucket struct {
	totals    Counters
	providers map[string]*Counters
}

func NewAggregator(retention time.Duration) *Aggregator {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Aggregator{
		days:      make(map[string]*dayBucket),
		retention: retention,
		now:       time.Now,
	}
}

// Record folds one event into the day/provider buckets. The running average
// response time is updated incrementally; raw samples are not kept.
func (a *Aggregator) Record(ev Event) {
	at := ev.At
	if at.IsZero() {
		at = a.nowUTC()
	}
	provider := strings.TrimSpace(ev.Provider)
	if provider == "" {
		provider = "unknown"
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	bucket := a.bucketFor(dateKey(at))
	apply(&bucket.totals, ev)
	pc, ok := bucket.providers[provider]
	if !ok {
		pc = &Counters{}
		bucket.providers[provider] = pc
	}
	apply(pc, ev)
}

// Today returns the current UTC day's bucket.
func (a *Aggregator) Today() DayStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotDay(dateKey(a.nowUTC()))
}

// Provider aggregates one provider's counters across all retained days.
func (a *Aggregator) Provider(name string) Counters {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out Counters
	for _, bucket := range a.days {
		if pc, ok := bucket.providers[name]; ok {
			merge(&out, *pc)
		}
	}
	return out
}

// Range aggregates counters for days within [from, to] inclusive.
func (a *Aggregator) Range(from, to time.Time) Counters {
	a.mu.Lock()
	defer a.mu.Unlock()

	fromKey := dateKey(from.UTC())
	toKey := dateKey(to.UTC())

	var out Counters
	for key, bucket := range a.days {
		if key < fromKey || key > toKey {
			continue
		}
		merge(&out, bucket.totals)
	}
	return out
}

// Snapshot returns every retained day sorted ascending by date.
func (a *Aggregator) Snapshot() []DayStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]string, 0, len(a.days))
	for key := range a.days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]DayStats, 0, len(keys))
	for _, key := range keys {
		out = append(out, a.snapshotDay(key))
	}
	return out
}

// Cleanup drops daily buckets older than the retention window and reports
// how many were removed.
func (a *Aggregator) Cleanup() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := dateKey(a.nowUTC().Add(-a.retention))
	removed := 0
	for key := range a.days {
		if key < cutoff {
			delete(a.days, key)
			removed++
		}
	}
	return removed
}

// Reset drops every bucket; used by the privacy-clear operations.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.days = make(map[string]*dayBucket)
}

func (a *Aggregator) bucketFor(key string) *dayBucket {
	bucket, ok := a.days[key]
	if !ok {
		bucket = &dayBucket{providers: make(map[string]*Counters)}
		a.days[key] = bucket
	}
	return bucket
}

func (a *Aggregator) snapshotDay(key string) DayStats {
	out := DayStats{Date: key, Providers: make(map[string]Counters)}
	bucket, ok := a.days[key]
	if !ok {
		return out
	}
	out.Totals = bucket.totals
	for name, pc := range bucket.providers {
		out.Providers[name] = *pc
	}
	return out
}

func (a *Aggregator) nowUTC() time.Time {
	return a.now().UTC()
}

func apply(c *Counters, ev Event) {
	c.Requests++
	switch ev.Kind {
	case EventSuccess:
		c.Successes++
		c.Characters += int64(ev.Characters)
	case EventFailure:
		c.Failures++
	case EventCacheHit:
		c.CacheHits++
	}

	if ev.Latency > 0 {
		c.timedSamples++
		ms := float64(ev.Latency.Milliseconds())
		c.AvgResponseMs += (ms - c.AvgResponseMs) / float64(c.timedSamples)
	}
}

func merge(dst *Counters, src Counters) {
	if src.timedSamples > 0 {
		total := dst.timedSamples + src.timedSamples
		dst.AvgResponseMs = (dst.AvgResponseMs*float64(dst.timedSamples) + src.AvgResponseMs*float64(src.timedSamples)) / float64(total)
		dst.timedSamples = total
	}
	dst.Requests += src.Requests
	dst.Successes += src.Successes
	dst.Failures += src.Failures
	dst.CacheHits += src.CacheHits
	dst.Characters += src.Characters
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
