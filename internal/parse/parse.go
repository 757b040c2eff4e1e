// Package parse handles the two input shapes cadence accepts from the
// user: free-form datetimes ("now", "2025-01-15 14:30", "jan 15") and
// compact signed durations ("-2d3h5m").
package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrParse marks any malformed datetime or duration input.
	ErrParse = errors.New("parse error")
	// ErrUnknownUnit marks a duration component with a unit letter
	// outside d/h/m/s.
	ErrUnknownUnit = errors.New("unknown duration unit")
)

// Stamp is the compact timestamp layout used by backups and the tracker
// list, e.g. 241231T2359.
const Stamp = "060102T1504"

// ParseDateTime resolves a user-supplied datetime string. The literal
// token "now" resolves to the current time; everything else is tried
// against a fixed format list, year-first and day-not-first.
func ParseDateTime(input string, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty datetime", ErrParse)
	}

	now := time.Now().In(loc)

	switch strings.ToLower(input) {
	case "now":
		return now, nil
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	case "yesterday":
		y := now.AddDate(0, 0, -1)
		return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, loc), nil
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}

	// Bare clock time means that time today.
	if t, err := time.ParseInLocation("15:04", input, loc); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}

	// Year-first before month-first; day-first layouts are deliberately
	// absent.
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"2006/01/02",
		"06-01-02 15:04",
		"06-01-02",
		Stamp,
		"1/2/2006 15:04",
		"1/2/2006",
		"Jan 2, 2006 15:04",
		"Jan 2, 2006",
		"Jan 2 2006",
		"Jan 2 15:04",
		"Jan 2",
		"2 Jan 2006",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, input, loc); err == nil {
			// Layouts without a year resolve to the current year.
			if t.Year() == 0 {
				t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unable to parse datetime: %s", ErrParse, input)
}

var durationComponent = regexp.MustCompile(`([+-]?)(\d+)([a-z])`)

// ParseDuration parses a compact signed duration such as "-2d3h5m".
// Each component carries its own sign, so "2d-3h5m" is two days minus
// three hours plus five minutes. Units are d, h, m and s.
func ParseDuration(input string) (time.Duration, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrParse)
	}

	matches := durationComponent.FindAllStringSubmatch(input, -1)
	if matches == nil {
		return 0, fmt.Errorf("%w: invalid duration: %s", ErrParse, input)
	}
	// Reject inputs with stray characters between components.
	var consumed int
	for _, m := range matches {
		consumed += len(m[0])
	}
	if consumed != len(input) {
		return 0, fmt.Errorf("%w: invalid duration: %s", ErrParse, input)
	}

	var total time.Duration
	for _, m := range matches {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("%w: invalid duration: %s", ErrParse, input)
		}
		var unit time.Duration
		switch m[3] {
		case "d":
			unit = 24 * time.Hour
		case "h":
			unit = time.Hour
		case "m":
			unit = time.Minute
		case "s":
			unit = time.Second
		default:
			return 0, fmt.Errorf("%w: %q in %q", ErrUnknownUnit, m[3], input)
		}
		if m[1] == "-" {
			n = -n
		}
		total += time.Duration(n) * unit
	}
	return total, nil
}

// FormatDuration renders a signed duration as its largest-to-smallest
// nonzero unit breakdown. ParseDuration signs each component on its
// own, so a negative duration carries the sign on every component
// ("-1d-17h-55m") and parses back to the same value. Zero renders as
// "+0m", never an empty string.
func FormatDuration(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Second)
	if total == 0 {
		return "+0m"
	}

	components := []struct {
		n    int64
		unit string
	}{
		{total / 86400, "d"},
		{(total % 86400) / 3600, "h"},
		{(total % 3600) / 60, "m"},
		{total % 60, "s"},
	}

	var b strings.Builder
	for _, c := range components {
		if c.n == 0 {
			continue
		}
		if sign == "-" || b.Len() == 0 {
			b.WriteString(sign)
		}
		fmt.Fprintf(&b, "%d%s", c.n, c.unit)
	}
	return b.String()
}

// ParseCompletion splits a completion entry on its first comma into a
// mandatory datetime and an optional duration (zero when absent). When
// both halves are malformed the two messages are reported together.
func ParseCompletion(input string, loc *time.Location) (time.Time, time.Duration, error) {
	dtPart := strings.TrimSpace(input)
	tdPart := ""
	if i := strings.Index(input, ","); i >= 0 {
		dtPart = strings.TrimSpace(input[:i])
		tdPart = strings.TrimSpace(input[i+1:])
	}

	var msgs []string
	dt, err := ParseDateTime(dtPart, loc)
	if err != nil {
		msgs = append(msgs, err.Error())
	}

	var td time.Duration
	if tdPart != "" {
		td, err = ParseDuration(tdPart)
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}

	if len(msgs) > 0 {
		return time.Time{}, 0, fmt.Errorf("%w: %s", ErrParse, strings.Join(msgs, "; "))
	}
	return dt, td, nil
}

// FormatStamp renders a timestamp in the compact yymmddTHHMM form. The
// zero time renders as "~", the list placeholder for unknown dates.
func FormatStamp(t time.Time) string {
	if t.IsZero() {
		return "~"
	}
	return t.Format(Stamp)
}

// ParseStamp is the inverse of FormatStamp.
func ParseStamp(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(Stamp, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrParse, s)
	}
	return t, nil
}
