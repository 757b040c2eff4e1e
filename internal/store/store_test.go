package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cadence.db"))
	if err != nil {
		t.Fatalf("Open = %v, expected nil", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadEmptyInitializes(t *testing.T) {
	s := openTestStore(t)
	records, nextID, err := s.Load()
	if err != nil {
		t.Fatalf("Load = %v, expected nil", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, expected 0", len(records))
	}
	if nextID != 1 {
		t.Fatalf("nextID = %d, expected 1 on first use", nextID)
	}
}

func TestCommitLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	in := map[int]Record{
		1: {
			ID:         1,
			Name:       "change filter",
			CreatedAt:  created,
			ModifiedAt: created.Add(time.Hour),
			History: []Event{
				{At: created},
				{At: created.AddDate(0, 1, 0), Deviation: -30 * time.Minute},
			},
		},
		3: {
			ID:         3,
			Name:       "water plants",
			CreatedAt:  created,
			ModifiedAt: created,
		},
	}
	if err := s.Commit(in, 4); err != nil {
		t.Fatalf("Commit = %v, expected nil", err)
	}

	out, nextID, err := s.Load()
	if err != nil {
		t.Fatalf("Load = %v, expected nil", err)
	}
	if nextID != 4 {
		t.Fatalf("nextID = %d, expected 4", nextID)
	}
	if len(out) != 2 {
		t.Fatalf("records = %d, expected 2", len(out))
	}

	r := out[1]
	if r.Name != "change filter" || !r.CreatedAt.Equal(created) {
		t.Fatalf("record 1 = %+v", r)
	}
	if len(r.History) != 2 {
		t.Fatalf("history length = %d, expected 2", len(r.History))
	}
	if r.History[1].Deviation != -30*time.Minute {
		t.Fatalf("deviation = %v, expected -30m", r.History[1].Deviation)
	}
	if r.History[0].At.After(r.History[1].At) {
		t.Fatalf("history not sorted: %v", r.History)
	}
	if len(out[3].History) != 0 {
		t.Fatalf("record 3 history = %v, expected empty", out[3].History)
	}
}

func TestCommitReplacesCollection(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := map[int]Record{
		1: {ID: 1, Name: "one", CreatedAt: now, ModifiedAt: now},
		2: {ID: 2, Name: "two", CreatedAt: now, ModifiedAt: now},
	}
	if err := s.Commit(first, 3); err != nil {
		t.Fatalf("Commit = %v", err)
	}

	// A later commit without tracker 1 must drop it and its rows.
	second := map[int]Record{
		2: {ID: 2, Name: "two renamed", CreatedAt: now, ModifiedAt: now,
			History: []Event{{At: now}}},
	}
	if err := s.Commit(second, 5); err != nil {
		t.Fatalf("Commit = %v", err)
	}

	out, nextID, err := s.Load()
	if err != nil {
		t.Fatalf("Load = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("records = %d, expected 1", len(out))
	}
	if out[2].Name != "two renamed" {
		t.Fatalf("name = %q", out[2].Name)
	}
	if nextID != 5 {
		t.Fatalf("nextID = %d, expected 5", nextID)
	}
}

func TestLoadRepairsLaggingCounter(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	// A counter at or below an existing id would eventually reuse it;
	// Load must advance past the maximum.
	in := map[int]Record{
		9: {ID: 9, Name: "nine", CreatedAt: now, ModifiedAt: now},
	}
	if err := s.Commit(in, 2); err != nil {
		t.Fatalf("Commit = %v", err)
	}
	_, nextID, err := s.Load()
	if err != nil {
		t.Fatalf("Load = %v", err)
	}
	if nextID != 10 {
		t.Fatalf("nextID = %d, expected 10", nextID)
	}
}

func TestStatePersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.db")
	now := time.Now().UTC().Truncate(time.Second)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	in := map[int]Record{1: {ID: 1, Name: "persist", CreatedAt: now, ModifiedAt: now}}
	if err := s.Commit(in, 2); err != nil {
		t.Fatalf("Commit = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close = %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen = %v", err)
	}
	defer s2.Close()
	out, nextID, err := s2.Load()
	if err != nil {
		t.Fatalf("Load = %v", err)
	}
	if out[1].Name != "persist" || nextID != 2 {
		t.Fatalf("reloaded state = %+v, nextID %d", out, nextID)
	}
}
