package tracker

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cadence/internal/store"
)

// tags label the visible rows of one page, one keystroke each.
const tags = "abcdefghijklmnopqrstuvwxyz"

// Options tune a Manager. Zero fields fall back to the defaults.
type Options struct {
	MaxHistory       int     // completions kept per tracker (default 12)
	SpreadMultiplier float64 // early/late window width (default 1.5)
	PageSize         int     // rows per page, at most 26 (default 26)
}

func (o Options) withDefaults() Options {
	if o.MaxHistory <= 0 {
		o.MaxHistory = 12
	}
	if o.SpreadMultiplier <= 0 {
		o.SpreadMultiplier = 1.5
	}
	if o.PageSize <= 0 || o.PageSize > len(tags) {
		o.PageSize = len(tags)
	}
	return o
}

// Row pairs a visible tracker with its single-character selection tag.
type Row struct {
	Tag     byte
	Tracker *Tracker
}

type pageTag struct {
	page int
	tag  byte
}

// Manager owns the tracker collection: id allocation, ordering, paging,
// tag resolution and persistence. It assumes a single-writer caller and
// commits durably before every mutating call returns.
type Manager struct {
	st   store.Store
	opts Options

	trackers   map[int]*Tracker
	nextID     int
	activePage int
	tagIndex   map[pageTag]int
	nextFirst  bool
	closed     bool
}

// NewManager loads the collection from st. Absent state starts empty
// with the id counter at 1.
func NewManager(st store.Store, opts Options) (*Manager, error) {
	records, nextID, err := st.Load()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		st:        st,
		opts:      opts.withDefaults(),
		trackers:  make(map[int]*Tracker, len(records)),
		nextID:    nextID,
		tagIndex:  make(map[pageTag]int),
		nextFirst: true,
	}
	for id, r := range records {
		m.trackers[id] = fromRecord(r)
	}
	return m, nil
}

func fromRecord(r store.Record) *Tracker {
	t := &Tracker{
		ID:         r.ID,
		Name:       r.Name,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}
	for _, e := range r.History {
		t.History = append(t.History, Completion{At: e.At, Deviation: e.Deviation})
	}
	return t
}

func toRecord(t *Tracker) store.Record {
	r := store.Record{
		ID:         t.ID,
		Name:       t.Name,
		CreatedAt:  t.CreatedAt,
		ModifiedAt: t.ModifiedAt,
	}
	for _, c := range t.History {
		r.History = append(r.History, store.Event{At: c.At, Deviation: c.Deviation})
	}
	return r
}

func (m *Manager) commit() error {
	records := make(map[int]store.Record, len(m.trackers))
	for id, t := range m.trackers {
		records[id] = toRecord(t)
	}
	return m.st.Commit(records, m.nextID)
}

// Create allocates an id, inserts a new tracker and commits. The name
// must be non-empty after trimming.
func (m *Manager) Create(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}

	id := m.nextID
	m.trackers[id] = New(id, name, time.Now())
	m.nextID++

	if err := m.commit(); err != nil {
		delete(m.trackers, id)
		m.nextID = id
		return 0, err
	}
	return id, nil
}

// Delete removes the tracker and commits. Deleting an absent id is a
// no-op, not an error.
func (m *Manager) Delete(id int) error {
	t, ok := m.trackers[id]
	if !ok {
		return nil
	}
	delete(m.trackers, id)
	if err := m.commit(); err != nil {
		m.trackers[id] = t
		return err
	}
	return nil
}

// Rename changes a tracker's display name and commits.
func (m *Manager) Rename(id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	t, ok := m.trackers[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	prev, prevMod := t.Name, t.ModifiedAt
	t.Rename(name)
	if err := m.commit(); err != nil {
		t.Name, t.ModifiedAt = prev, prevMod
		t.stats = nil
		return err
	}
	return nil
}

// RecordCompletion records c against the tracker and commits. On commit
// failure the in-memory history is left exactly as before the call.
func (m *Manager) RecordCompletion(id int, c Completion) error {
	t, ok := m.trackers[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	snap := t.snapshot()
	t.RecordCompletion(c, m.opts.MaxHistory)
	if err := m.commit(); err != nil {
		t.restore(snap)
		return err
	}
	return nil
}

// DeleteCompletion removes one history entry and commits.
func (m *Manager) DeleteCompletion(id, index int) error {
	t, ok := m.trackers[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	snap := t.snapshot()
	if err := t.DeleteAt(index, m.opts.MaxHistory); err != nil {
		return err
	}
	if err := m.commit(); err != nil {
		t.restore(snap)
		return err
	}
	return nil
}

// ReplaceCompletion substitutes one history entry and commits.
func (m *Manager) ReplaceCompletion(id, index int, c Completion) error {
	t, ok := m.trackers[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	snap := t.snapshot()
	if err := t.ReplaceAt(index, c, m.opts.MaxHistory); err != nil {
		return err
	}
	if err := m.commit(); err != nil {
		t.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	history    []Completion
	modifiedAt time.Time
}

func (t *Tracker) snapshot() snapshot {
	return snapshot{
		history:    append([]Completion(nil), t.History...),
		modifiedAt: t.ModifiedAt,
	}
}

func (t *Tracker) restore(s snapshot) {
	t.History = s.history
	t.ModifiedAt = s.modifiedAt
	t.stats = nil
}

// Get returns the tracker for id.
func (m *Manager) Get(id int) (*Tracker, bool) {
	t, ok := m.trackers[id]
	return t, ok
}

// Stats returns the derived statistics for id using the configured
// spread multiplier.
func (m *Manager) Stats(id int) (Stats, error) {
	t, ok := m.trackers[id]
	if !ok {
		return Stats{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return t.Stats(m.opts.SpreadMultiplier), nil
}

// DueCount reports how many trackers have passed their late bound at
// now. Read-only; safe for the reminder callback.
func (m *Manager) DueCount(now time.Time) int {
	n := 0
	for _, t := range m.trackers {
		s := t.Stats(m.opts.SpreadMultiplier)
		if !s.Late.IsZero() && !now.Before(s.Late) {
			n++
		}
	}
	return n
}

// Len reports the number of trackers.
func (m *Manager) Len() int { return len(m.trackers) }

// SpreadMultiplier reports the configured early/late window width.
func (m *Manager) SpreadMultiplier() float64 { return m.opts.SpreadMultiplier }

// sortKey partitions trackers three ways: a known next-expected date,
// only a last completion, or neither. Direction flips which bucket
// leads, never the membership rule; ties break on the bucket's natural
// key.
func (m *Manager) sortKey(t *Tracker) (bucket int, when time.Time, id int) {
	s := t.Stats(m.opts.SpreadMultiplier)
	last, hasLast := t.LastCompletion()
	switch {
	case !s.NextExpected.IsZero():
		bucket = 0
		when = s.NextExpected
	case hasLast:
		bucket = 1
		when = last.At
	default:
		bucket = 2
	}
	if !m.nextFirst {
		bucket = 2 - bucket
	}
	return bucket, when, t.ID
}

func (m *Manager) sorted() []*Tracker {
	list := make([]*Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		bi, wi, idi := m.sortKey(list[i])
		bj, wj, idj := m.sortKey(list[j])
		if bi != bj {
			return bi < bj
		}
		if !wi.Equal(wj) {
			return wi.Before(wj)
		}
		return idi < idj
	})
	return list
}

// ListPage computes the sorted list, slices out the requested 0-indexed
// page, assigns tags a-z in display order and rebuilds the tag index
// for that page. The page becomes the active page.
func (m *Manager) ListPage(page int) []Row {
	if page < 0 {
		page = 0
	}
	if pc := m.PageCount(); pc > 0 && page >= pc {
		page = pc - 1
	}
	m.activePage = page

	for pt := range m.tagIndex {
		if pt.page == page {
			delete(m.tagIndex, pt)
		}
	}

	all := m.sorted()
	start := page * m.opts.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + m.opts.PageSize
	if end > len(all) {
		end = len(all)
	}

	rows := make([]Row, 0, end-start)
	for i, t := range all[start:end] {
		tag := tags[i]
		m.tagIndex[pageTag{page: page, tag: tag}] = t.ID
		rows = append(rows, Row{Tag: tag, Tracker: t})
	}
	return rows
}

// ResolveTag maps a (page, tag) pair back to a tracker id. Tags expire
// when the page is recomputed.
func (m *Manager) ResolveTag(page int, tag byte) (int, bool) {
	id, ok := m.tagIndex[pageTag{page: page, tag: tag}]
	return id, ok
}

// PageCount reports ceil(total / pageSize).
func (m *Manager) PageCount() int {
	return (len(m.trackers) + m.opts.PageSize - 1) / m.opts.PageSize
}

// ActivePage reports the page most recently listed.
func (m *Manager) ActivePage() int { return m.activePage }

// SetActivePage clamps and records the page for the next listing.
func (m *Manager) SetActivePage(page int) {
	if page < 0 {
		page = 0
	}
	if pc := m.PageCount(); pc > 0 && page >= pc {
		page = pc - 1
	}
	m.activePage = page
}

// NextPage advances the active page.
func (m *Manager) NextPage() { m.SetActivePage(m.activePage + 1) }

// PrevPage backs up the active page.
func (m *Manager) PrevPage() { m.SetActivePage(m.activePage - 1) }

// FirstPage rewinds to page zero.
func (m *Manager) FirstPage() { m.activePage = 0 }

// ToggleSort flips whether trackers with a known next-expected date
// sort before or after the rest, and reports the new direction.
func (m *Manager) ToggleSort() bool {
	m.nextFirst = !m.nextFirst
	return m.nextFirst
}

// NextFirst reports the current sort direction.
func (m *Manager) NextFirst() bool { return m.nextFirst }

// Close releases the store handle exactly once. With synchronous
// commits there is never a pending transaction to flush; a close
// failure still surfaces to the caller.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.st.Close()
}
