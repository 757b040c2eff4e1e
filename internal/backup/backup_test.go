package backup

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cadence/internal/store"
)

func TestExportImportRoundTrip(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	in := map[int]store.Record{
		1: {
			ID:         1,
			Name:       "change filter",
			CreatedAt:  created,
			ModifiedAt: created.Add(2 * time.Hour),
			History: []store.Event{
				{At: created},
				{At: created.AddDate(0, 1, 0), Deviation: -45 * time.Minute},
			},
		},
		5: {
			ID:         5,
			Name:       "water plants",
			CreatedAt:  created,
			ModifiedAt: created,
		},
	}

	var buf bytes.Buffer
	if err := Export(&buf, in); err != nil {
		t.Fatalf("Export = %v, expected nil", err)
	}

	out, nextID, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import = %v, expected nil", err)
	}
	if nextID != 6 {
		t.Fatalf("nextID = %d, expected 6", nextID)
	}
	if len(out) != 2 {
		t.Fatalf("records = %d, expected 2", len(out))
	}

	r := out[1]
	if r.Name != "change filter" {
		t.Fatalf("name = %q", r.Name)
	}
	// Stamps carry minute resolution.
	if !r.CreatedAt.Equal(created) || !r.ModifiedAt.Equal(created.Add(2*time.Hour)) {
		t.Fatalf("timestamps = %v / %v", r.CreatedAt, r.ModifiedAt)
	}
	if len(r.History) != 2 {
		t.Fatalf("history = %v", r.History)
	}
	if r.History[1].Deviation != -45*time.Minute {
		t.Fatalf("deviation = %v, expected -45m", r.History[1].Deviation)
	}
}

func TestExportStampFormat(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)
	in := map[int]store.Record{
		2: {ID: 2, Name: "x", CreatedAt: at, ModifiedAt: at,
			History: []store.Event{{At: at, Deviation: 90 * time.Minute}}},
	}

	var buf bytes.Buffer
	if err := Export(&buf, in); err != nil {
		t.Fatalf("Export = %v", err)
	}
	s := buf.String()
	if !strings.Contains(s, `"241231T2359"`) {
		t.Fatalf("backup missing compact stamp: %s", s)
	}
	if !strings.Contains(s, `"90"`) {
		t.Fatalf("backup missing minutes string: %s", s)
	}
}

func TestImportAbsentDurationIsZero(t *testing.T) {
	src := `{
	  "3": {
	    "name": "sharpen mower blade",
	    "created": "240101T0900",
	    "modified": "240101T0900",
	    "history": [["240601T0900", ""]]
	  }
	}`
	out, _, err := Import(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Import = %v, expected nil", err)
	}
	if out[3].History[0].Deviation != 0 {
		t.Fatalf("deviation = %v, expected 0", out[3].History[0].Deviation)
	}
}

func TestImportSortsHistory(t *testing.T) {
	src := `{
	  "1": {
	    "name": "x",
	    "created": "240101T0900",
	    "modified": "240101T0900",
	    "history": [["240301T0900", "0"], ["240101T0900", "0"]]
	  }
	}`
	out, _, err := Import(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Import = %v", err)
	}
	h := out[1].History
	if len(h) != 2 || h[0].At.After(h[1].At) {
		t.Fatalf("history not sorted: %v", h)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	if _, _, err := Import(strings.NewReader("not json")); err == nil {
		t.Fatalf("Import of garbage succeeded")
	}
	bad := `{"x": {"name": "n", "created": "240101T0900", "modified": "240101T0900"}}`
	if _, _, err := Import(strings.NewReader(bad)); err == nil {
		t.Fatalf("Import with non-numeric id succeeded")
	}
}
