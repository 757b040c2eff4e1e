// Package backup exports the tracker collection to a portable JSON
// form and restores it. Timestamps travel as compact yymmddTHHMM
// strings and deviations as integer minutes, so a backup stays
// readable and editable by hand.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"cadence/internal/parse"
	"cadence/internal/store"
)

type record struct {
	Name     string      `json:"name"`
	Created  string      `json:"created"`
	Modified string      `json:"modified"`
	History  [][2]string `json:"history"`
}

// Export writes one JSON record per tracker id.
func Export(w io.Writer, records map[int]store.Record) error {
	out := make(map[string]record, len(records))
	for id, r := range records {
		hist := make([][2]string, 0, len(r.History))
		for _, e := range r.History {
			hist = append(hist, [2]string{
				parse.FormatStamp(e.At),
				strconv.FormatInt(int64(e.Deviation/time.Minute), 10),
			})
		}
		out[strconv.Itoa(id)] = record{
			Name:     r.Name,
			Created:  parse.FormatStamp(r.CreatedAt),
			Modified: parse.FormatStamp(r.ModifiedAt),
			History:  hist,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Import reads a backup produced by Export and returns the restored
// records plus a counter safely past every restored id. A missing or
// empty duration field restores as zero.
func Import(r io.Reader) (map[int]store.Record, int, error) {
	var in map[string]record
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, 0, fmt.Errorf("read backup: %w", err)
	}

	records := make(map[int]store.Record, len(in))
	nextID := 1
	for key, rec := range in {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, 0, fmt.Errorf("bad tracker id %q: %w", key, err)
		}

		out := store.Record{ID: id, Name: rec.Name}
		if out.CreatedAt, err = parse.ParseStamp(rec.Created, time.Local); err != nil {
			return nil, 0, fmt.Errorf("tracker %d: %w", id, err)
		}
		if out.ModifiedAt, err = parse.ParseStamp(rec.Modified, time.Local); err != nil {
			return nil, 0, fmt.Errorf("tracker %d: %w", id, err)
		}

		for _, pair := range rec.History {
			at, err := parse.ParseStamp(pair[0], time.Local)
			if err != nil {
				return nil, 0, fmt.Errorf("tracker %d: %w", id, err)
			}
			var dev time.Duration
			if pair[1] != "" {
				minutes, err := strconv.ParseInt(pair[1], 10, 64)
				if err != nil {
					return nil, 0, fmt.Errorf("tracker %d: bad duration %q: %w", id, pair[1], err)
				}
				dev = time.Duration(minutes) * time.Minute
			}
			out.History = append(out.History, store.Event{At: at, Deviation: dev})
		}
		sort.Slice(out.History, func(i, j int) bool {
			return out.History[i].At.Before(out.History[j].At)
		})

		records[id] = out
		if id >= nextID {
			nextID = id + 1
		}
	}
	return records, nextID, nil
}
