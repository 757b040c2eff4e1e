package tracker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cadence/internal/store"
)

// fakeStore is an in-memory Store with commit-failure injection.
type fakeStore struct {
	records  map[int]store.Record
	nextID   int
	commits  int
	failNext bool
	closed   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int]store.Record), nextID: 1}
}

func (f *fakeStore) Load() (map[int]store.Record, int, error) {
	out := make(map[int]store.Record, len(f.records))
	for id, r := range f.records {
		out[id] = r
	}
	return out, f.nextID, nil
}

func (f *fakeStore) Commit(records map[int]store.Record, nextID int) error {
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("%w: injected commit failure", store.ErrStore)
	}
	f.records = make(map[int]store.Record, len(records))
	for id, r := range records {
		f.records[id] = r
	}
	f.nextID = nextID
	f.commits++
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	m, err := NewManager(fs, Options{})
	if err != nil {
		t.Fatalf("NewManager = %v, expected nil", err)
	}
	return m, fs
}

func TestCreateAllocatesMonotonicIDs(t *testing.T) {
	m, fs := newTestManager(t)

	a, err := m.Create("change filter")
	if err != nil {
		t.Fatalf("Create = %v, expected nil", err)
	}
	b, err := m.Create("water plants")
	if err != nil {
		t.Fatalf("Create = %v, expected nil", err)
	}
	if a != 1 || b != 2 {
		t.Fatalf("ids = %d, %d, expected 1, 2", a, b)
	}
	if fs.nextID != 3 {
		t.Fatalf("persisted nextID = %d, expected 3", fs.nextID)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	m, fs := newTestManager(t)
	for _, name := range []string{"", "   ", "\t"} {
		if _, err := m.Create(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Create(%q) = %v, expected ErrInvalidName", name, err)
		}
	}
	if fs.commits != 0 {
		t.Fatalf("commits = %d, expected 0 after rejected creates", fs.commits)
	}
}

func TestCreateRollsBackOnCommitFailure(t *testing.T) {
	m, fs := newTestManager(t)
	fs.failNext = true

	if _, err := m.Create("filter"); !errors.Is(err, store.ErrStore) {
		t.Fatalf("Create = %v, expected ErrStore", err)
	}
	if m.Len() != 0 {
		t.Fatalf("tracker count = %d after failed commit, expected 0", m.Len())
	}
	// The id must not be burned.
	id, err := m.Create("filter")
	if err != nil {
		t.Fatalf("Create = %v, expected nil", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, expected 1", id)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	id, _ := m.Create("filter")

	if err := m.Delete(id); err != nil {
		t.Fatalf("Delete = %v, expected nil", err)
	}
	// Deleting a nonexistent id succeeds as a no-op.
	if err := m.Delete(id); err != nil {
		t.Fatalf("second Delete = %v, expected nil", err)
	}
	if err := m.Delete(999); err != nil {
		t.Fatalf("Delete(999) = %v, expected nil", err)
	}
}

func TestIDsNeverReused(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.Create("one")
	if err := m.Delete(a); err != nil {
		t.Fatalf("Delete = %v", err)
	}
	b, _ := m.Create("two")
	if b == a {
		t.Fatalf("id %d reused after delete", a)
	}
}

func TestRecordCompletionNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.RecordCompletion(42, Completion{At: day(0)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordCompletion = %v, expected ErrNotFound", err)
	}
}

func TestRecordCompletionPersists(t *testing.T) {
	m, fs := newTestManager(t)
	id, _ := m.Create("filter")

	if err := m.RecordCompletion(id, Completion{At: day(0)}); err != nil {
		t.Fatalf("RecordCompletion = %v, expected nil", err)
	}
	if got := len(fs.records[id].History); got != 1 {
		t.Fatalf("persisted history length = %d, expected 1", got)
	}
}

func TestRecordCompletionRollsBackOnCommitFailure(t *testing.T) {
	m, fs := newTestManager(t)
	id, _ := m.Create("filter")
	if err := m.RecordCompletion(id, Completion{At: day(0)}); err != nil {
		t.Fatalf("RecordCompletion = %v", err)
	}

	fs.failNext = true
	err := m.RecordCompletion(id, Completion{At: day(10)})
	if !errors.Is(err, store.ErrStore) {
		t.Fatalf("RecordCompletion = %v, expected ErrStore", err)
	}

	tr, _ := m.Get(id)
	if len(tr.History) != 1 || !tr.History[0].At.Equal(day(0)) {
		t.Fatalf("history mutated by failed commit: %v", tr.History)
	}
	if s, _ := m.Stats(id); s.Completions != 1 {
		t.Fatalf("stats out of step after rollback: %+v", s)
	}
}

func TestEditHistoryThroughManager(t *testing.T) {
	m, _ := newTestManager(t)
	id, _ := m.Create("filter")
	_ = m.RecordCompletion(id, Completion{At: day(0)})
	_ = m.RecordCompletion(id, Completion{At: day(10)})

	if err := m.ReplaceCompletion(id, 1, Completion{At: day(12)}); err != nil {
		t.Fatalf("ReplaceCompletion = %v, expected nil", err)
	}
	if err := m.DeleteCompletion(id, 0); err != nil {
		t.Fatalf("DeleteCompletion = %v, expected nil", err)
	}

	tr, _ := m.Get(id)
	if len(tr.History) != 1 || !tr.History[0].At.Equal(day(12)) {
		t.Fatalf("history after edits = %v", tr.History)
	}

	if err := m.DeleteCompletion(id, 7); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("DeleteCompletion(7) = %v, expected ErrIndexOutOfRange", err)
	}
	if err := m.DeleteCompletion(999, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteCompletion(999) = %v, expected ErrNotFound", err)
	}
}

func TestRename(t *testing.T) {
	m, _ := newTestManager(t)
	id, _ := m.Create("filter")
	if err := m.Rename(id, "furnace filter"); err != nil {
		t.Fatalf("Rename = %v, expected nil", err)
	}
	tr, _ := m.Get(id)
	if tr.Name != "furnace filter" {
		t.Fatalf("name = %q", tr.Name)
	}
	if err := m.Rename(id, "  "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Rename(empty) = %v, expected ErrInvalidName", err)
	}
	if err := m.Rename(999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Rename(999) = %v, expected ErrNotFound", err)
	}
}

func TestListPageAssignsTags(t *testing.T) {
	m, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		if _, err := m.Create(fmt.Sprintf("task %d", i+1)); err != nil {
			t.Fatalf("Create = %v", err)
		}
	}

	rows := m.ListPage(0)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, expected 3", len(rows))
	}
	for i, row := range rows {
		if want := byte('a' + i); row.Tag != want {
			t.Fatalf("tag[%d] = %c, expected %c", i, row.Tag, want)
		}
		id, ok := m.ResolveTag(0, row.Tag)
		if !ok || id != row.Tracker.ID {
			t.Fatalf("ResolveTag(%c) = %d, %v, expected %d", row.Tag, id, ok, row.Tracker.ID)
		}
	}
	if _, ok := m.ResolveTag(0, 'z'); ok {
		t.Fatalf("ResolveTag(z) resolved an unassigned tag")
	}
	if _, ok := m.ResolveTag(5, 'a'); ok {
		t.Fatalf("ResolveTag on unlisted page resolved")
	}
}

func TestPagination(t *testing.T) {
	fs := newFakeStore()
	m, err := NewManager(fs, Options{PageSize: 5})
	if err != nil {
		t.Fatalf("NewManager = %v", err)
	}
	for i := 0; i < 12; i++ {
		if _, err := m.Create(fmt.Sprintf("task %d", i+1)); err != nil {
			t.Fatalf("Create = %v", err)
		}
	}

	if pc := m.PageCount(); pc != 3 {
		t.Fatalf("PageCount = %d, expected 3", pc)
	}
	if rows := m.ListPage(2); len(rows) != 2 {
		t.Fatalf("last page rows = %d, expected 2", len(rows))
	}
	// Out-of-range pages clamp to the last page.
	if rows := m.ListPage(9); len(rows) != 2 {
		t.Fatalf("clamped page rows = %d, expected 2", len(rows))
	}
	if m.ActivePage() != 2 {
		t.Fatalf("active page = %d, expected 2", m.ActivePage())
	}
	m.FirstPage()
	if m.ActivePage() != 0 {
		t.Fatalf("active page after FirstPage = %d", m.ActivePage())
	}
}

func TestSortPolicyBuckets(t *testing.T) {
	m, _ := newTestManager(t)

	// bare: no completions at all.
	bare, _ := m.Create("bare")
	// lastOnly: one completion, so no next-expected.
	lastOnly, _ := m.Create("last only")
	_ = m.RecordCompletion(lastOnly, Completion{At: day(5)})
	// predicted: two completions, so a next-expected date.
	predicted, _ := m.Create("predicted")
	_ = m.RecordCompletion(predicted, Completion{At: day(0)})
	_ = m.RecordCompletion(predicted, Completion{At: day(10)})

	rows := m.ListPage(0)
	order := []int{rows[0].Tracker.ID, rows[1].Tracker.ID, rows[2].Tracker.ID}
	want := []int{predicted, lastOnly, bare}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("next-first order = %v, expected %v", order, want)
		}
	}

	m.ToggleSort()
	rows = m.ListPage(0)
	order = []int{rows[0].Tracker.ID, rows[1].Tracker.ID, rows[2].Tracker.ID}
	want = []int{bare, lastOnly, predicted}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("next-last order = %v, expected %v", order, want)
		}
	}
}

func TestSortTiesBreakOnNaturalKey(t *testing.T) {
	m, _ := newTestManager(t)
	// Two trackers with identical next-expected dates break ties on
	// that timestamp's bucket key, then id.
	a, _ := m.Create("a")
	_ = m.RecordCompletion(a, Completion{At: day(0)})
	_ = m.RecordCompletion(a, Completion{At: day(10)})
	b, _ := m.Create("b")
	_ = m.RecordCompletion(b, Completion{At: day(0)})
	_ = m.RecordCompletion(b, Completion{At: day(10)})

	rows := m.ListPage(0)
	if rows[0].Tracker.ID != a || rows[1].Tracker.ID != b {
		t.Fatalf("tie order = %d, %d, expected %d, %d", rows[0].Tracker.ID, rows[1].Tracker.ID, a, b)
	}
}

func TestManagerLoadsExistingState(t *testing.T) {
	fs := newFakeStore()
	fs.records[7] = store.Record{
		ID:        7,
		Name:      "inherited",
		CreatedAt: day(0),
		History: []store.Event{
			{At: day(0)},
			{At: day(10), Deviation: time.Hour},
		},
	}
	fs.nextID = 8

	m, err := NewManager(fs, Options{})
	if err != nil {
		t.Fatalf("NewManager = %v", err)
	}
	tr, ok := m.Get(7)
	if !ok {
		t.Fatalf("tracker 7 not loaded")
	}
	if len(tr.History) != 2 || tr.History[1].Deviation != time.Hour {
		t.Fatalf("loaded history = %v", tr.History)
	}
	id, _ := m.Create("fresh")
	if id != 8 {
		t.Fatalf("new id = %d, expected 8", id)
	}
}

func TestCloseReleasesStoreOnce(t *testing.T) {
	m, fs := newTestManager(t)
	if err := m.Close(); err != nil {
		t.Fatalf("Close = %v, expected nil", err)
	}
	if !fs.closed {
		t.Fatalf("store not closed")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close = %v, expected nil", err)
	}
}
