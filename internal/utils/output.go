package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"cadence/internal/parse"
	"cadence/internal/tracker"
)

// OutputFormat represents different output formats
type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatQuiet   OutputFormat = "quiet"
)

// RenderConfig contains configuration for output rendering
type RenderConfig struct {
	Format   OutputFormat
	Color    bool
	Location *time.Location
}

// DefaultRenderConfig returns a default render configuration
func DefaultRenderConfig() *RenderConfig {
	return &RenderConfig{
		Format:   FormatDefault,
		Color:    true,
		Location: time.Local,
	}
}

// TrackerRow is one renderable tracker line.
type TrackerRow struct {
	Tag   string `json:"tag,omitempty"`
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Next  string `json:"next"`
	Last  string `json:"last"`
	Early string `json:"early,omitempty"`
	Late  string `json:"late,omitempty"`
	Done  int    `json:"completions"`
}

// TrackerList is a page of rows plus pagination info.
type TrackerList struct {
	Rows       []TrackerRow `json:"trackers"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// NewTrackerRow flattens one tracker and its stats for rendering.
func NewTrackerRow(tag byte, t *tracker.Tracker, s tracker.Stats) TrackerRow {
	row := TrackerRow{
		ID:   t.ID,
		Name: t.Name,
		Next: "~",
		Last: "~",
		Done: s.Completions,
	}
	if tag != 0 {
		row.Tag = string(tag)
	}
	if last, ok := t.LastCompletion(); ok {
		row.Last = last.At.Format("06-01-02")
	}
	if !s.NextExpected.IsZero() {
		row.Next = s.NextExpected.Format("06-01-02")
		row.Early = s.Early.Format("06-01-02")
		row.Late = s.Late.Format("06-01-02")
	}
	return row
}

// Renderer formats tracker output
type Renderer struct {
	cfg *RenderConfig

	header  lipgloss.Style
	tag     lipgloss.Style
	overdue lipgloss.Style
	due     lipgloss.Style
	fine    lipgloss.Style
	dim     lipgloss.Style
}

// NewRenderer creates a renderer with the given configuration
func NewRenderer(cfg *RenderConfig) *Renderer {
	r := &Renderer{cfg: cfg}
	if cfg.Color {
		r.header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
		r.tag = lipgloss.NewStyle().Faint(true)
		r.overdue = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
		r.due = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
		r.fine = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))
		r.dim = lipgloss.NewStyle().Faint(true)
	} else {
		plain := lipgloss.NewStyle()
		r.header, r.tag, r.overdue, r.due, r.fine, r.dim = plain, plain, plain, plain, plain, plain
	}
	return r
}

// RenderTrackerList renders a page of trackers in the configured format.
func (r *Renderer) RenderTrackerList(list *TrackerList) (string, error) {
	switch r.cfg.Format {
	case FormatJSON:
		b, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case FormatQuiet:
		var b strings.Builder
		for _, row := range list.Rows {
			fmt.Fprintf(&b, "%d\t%s\n", row.ID, row.Name)
		}
		return b.String(), nil
	case FormatTable, FormatDefault:
		return r.renderTable(list), nil
	default:
		return "", fmt.Errorf("unknown output format %q", r.cfg.Format)
	}
}

func (r *Renderer) renderTable(list *TrackerList) string {
	var b strings.Builder

	b.WriteString(r.header.Render(fmt.Sprintf(" %-4s %-4s %-9s %-9s %s", "tag", "id", "next", "last", "tracker")))
	b.WriteByte('\n')

	today := time.Now().In(r.cfg.Location).Format("06-01-02")
	for _, row := range list.Rows {
		line := fmt.Sprintf(" %-4s %-4d %-9s %-9s %s", row.Tag, row.ID, row.Next, row.Last, row.Name)
		switch {
		case row.Late != "" && today >= row.Late:
			line = r.overdue.Render(line)
		case row.Early != "" && today >= row.Early:
			line = r.due.Render(line)
		case row.Next != "~":
			line = r.fine.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	p := NewPagination(list.Total, maxInt(1, perPage(list)), list.Page+1)
	b.WriteString(r.dim.Render(p.FormatSummary()))
	b.WriteByte('\n')
	return b.String()
}

// RenderTrackerInfo renders the full detail view of one tracker.
func (r *Renderer) RenderTrackerInfo(t *tracker.Tracker, s tracker.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.header.Render(t.Name))
	fmt.Fprintf(&b, "  id:          %d\n", t.ID)
	fmt.Fprintf(&b, "  created:     %s\n", parse.FormatStamp(t.CreatedAt))
	fmt.Fprintf(&b, "  modified:    %s\n", parse.FormatStamp(t.ModifiedAt))
	fmt.Fprintf(&b, "  completions: (%d)\n", s.Completions)
	for i, c := range t.History {
		fmt.Fprintf(&b, "    %2d. %s %s\n", i, parse.FormatStamp(c.At), parse.FormatDuration(c.Deviation))
	}
	fmt.Fprintf(&b, "  intervals:   (%d)\n", s.Intervals)
	if s.Intervals > 0 {
		fmt.Fprintf(&b, "    last:      %s\n", parse.FormatDuration(s.LastInterval))
		fmt.Fprintf(&b, "    average:   %s\n", parse.FormatDuration(s.AverageInterval))
		fmt.Fprintf(&b, "    spread:    %s\n", parse.FormatDuration(s.Spread))
	}
	fmt.Fprintf(&b, "  next:        %s\n", parse.FormatStamp(s.NextExpected))
	if !s.NextExpected.IsZero() {
		fmt.Fprintf(&b, "    early:     %s\n", parse.FormatStamp(s.Early))
		fmt.Fprintf(&b, "    late:      %s\n", parse.FormatStamp(s.Late))
	}
	return b.String()
}

func perPage(list *TrackerList) int {
	if list.TotalPages <= 1 {
		return maxInt(1, list.Total)
	}
	return (list.Total + list.TotalPages - 1) / list.TotalPages
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
