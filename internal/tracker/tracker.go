// Package tracker implements the recurring-task record model: one
// Tracker per task, a bounded history of completions, and interval
// statistics used to predict the next occurrence.
package tracker

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidName rejects empty tracker names.
	ErrInvalidName = errors.New("tracker name must not be empty")
	// ErrNotFound marks an unknown tracker id.
	ErrNotFound = errors.New("tracker not found")
	// ErrIndexOutOfRange marks a history edit index outside the history.
	ErrIndexOutOfRange = errors.New("history index out of range")
)

// Completion is one recorded instance of a tracked task being done. At
// is the absolute timestamp; Deviation is how far At fell from the
// predicted time, zero when unknown.
type Completion struct {
	At        time.Time
	Deviation time.Duration
}

// Stats is derived from a tracker's history and recomputable from it at
// any time. NextExpected, Early and Late are zero values while the
// history holds fewer than two completions.
type Stats struct {
	Completions     int
	Intervals       int
	LastInterval    time.Duration
	AverageInterval time.Duration
	Spread          time.Duration
	NextExpected    time.Time
	Early           time.Time
	Late            time.Time
}

// Tracker is one trackable task. The id is immutable after creation and
// assigned by the Manager. History stays sorted ascending by At and
// holds at most the configured maximum of entries.
type Tracker struct {
	ID         int
	Name       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	History    []Completion

	stats     *Stats  // invalidated on every history mutation
	statsMult float64 // multiplier the cached stats were computed with
}

// New constructs a tracker. Callers outside tests go through
// Manager.Create, which allocates the id.
func New(id int, name string, now time.Time) *Tracker {
	return &Tracker{
		ID:         id,
		Name:       name,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// RecordCompletion inserts c into the history. Insertion need not be
// the newest entry; the history is re-sorted, so historical backfill is
// accepted without confirmation. Beyond max entries the oldest are
// evicted.
func (t *Tracker) RecordCompletion(c Completion, max int) {
	t.History = append(t.History, c)
	t.normalize(max)
}

// DeleteAt removes the history entry at index i.
func (t *Tracker) DeleteAt(i, max int) error {
	if i < 0 || i >= len(t.History) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(t.History))
	}
	t.History = append(t.History[:i], t.History[i+1:]...)
	t.normalize(max)
	return nil
}

// ReplaceAt substitutes the history entry at index i with c.
func (t *Tracker) ReplaceAt(i int, c Completion, max int) error {
	if i < 0 || i >= len(t.History) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(t.History))
	}
	t.History[i] = c
	t.normalize(max)
	return nil
}

// Rename updates the display name. Validation happens in the Manager.
func (t *Tracker) Rename(name string) {
	t.Name = name
	t.ModifiedAt = time.Now()
	t.stats = nil
}

func (t *Tracker) normalize(max int) {
	sort.SliceStable(t.History, func(i, j int) bool {
		return t.History[i].At.Before(t.History[j].At)
	})
	if max > 0 && len(t.History) > max {
		t.History = t.History[len(t.History)-max:]
	}
	t.stats = nil
	t.ModifiedAt = time.Now()
}

// LastCompletion returns the newest history entry, false when the
// history is empty.
func (t *Tracker) LastCompletion() (Completion, bool) {
	if len(t.History) == 0 {
		return Completion{}, false
	}
	return t.History[len(t.History)-1], true
}

// Stats returns the derived statistics, computing and caching them when
// stale. spreadMult widens the early/late window around NextExpected; a
// different multiplier than the cached one forces a recompute.
func (t *Tracker) Stats(spreadMult float64) Stats {
	if t.stats == nil || t.statsMult != spreadMult {
		s := computeStats(t.History, spreadMult)
		t.stats = &s
		t.statsMult = spreadMult
	}
	return *t.stats
}

// computeStats is a pure function of the history; everything the cache
// holds can be rebuilt from here.
func computeStats(history []Completion, spreadMult float64) Stats {
	s := Stats{Completions: len(history)}
	if len(history) < 2 {
		return s
	}

	intervals := make([]time.Duration, 0, len(history)-1)
	for i := 0; i < len(history)-1; i++ {
		intervals = append(intervals, history[i+1].At.Sub(history[i].At))
	}
	s.Intervals = len(intervals)
	s.LastInterval = intervals[len(intervals)-1]

	var sum time.Duration
	for _, iv := range intervals {
		sum += iv
	}
	s.AverageInterval = sum / time.Duration(len(intervals))

	// Spread is defined only with two or more intervals; a single
	// interval pins early and late to the expectation itself.
	if len(intervals) >= 2 {
		var total time.Duration
		for _, iv := range intervals {
			if iv < s.AverageInterval {
				total += s.AverageInterval - iv
			} else {
				total += iv - s.AverageInterval
			}
		}
		s.Spread = total / time.Duration(len(intervals))
	}

	last := history[len(history)-1].At
	s.NextExpected = last.Add(s.AverageInterval)
	window := time.Duration(spreadMult * float64(s.Spread))
	s.Early = s.NextExpected.Add(-window)
	s.Late = s.NextExpected.Add(window)
	return s
}
