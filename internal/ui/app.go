package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"cadence/internal/config"
	"cadence/internal/parse"
	"cadence/internal/tracker"
	"cadence/internal/utils"
	"cadence/internal/version"
)

type mode int
type action int

const (
	modeList mode = iota
	modeTag
	modeInput
	modeConfirm
	modeInfo
	modeHelp
)

const (
	actionAdd action = iota
	actionRecord
	actionRename
	actionDelete
	actionInfo
	actionDeleteEntry
	actionReplaceEntry
)

type Model struct {
	// layout
	width, height int
	mode          mode

	// pending interaction
	pending action
	target  int // tracker id the pending action applies to

	// data
	mgr  *tracker.Manager
	rows []tracker.Row

	// time & tz
	loc *time.Location
	now time.Time

	// input prompt
	input textinput.Model

	// status line
	status    string
	statusErr bool

	th Theme
}

func Run(mgr *tracker.Manager, cfg config.Config) error {
	loc := cfg.Location()

	in := textinput.New()
	in.CharLimit = 128
	in.Width = 48

	m := Model{
		mgr:   mgr,
		loc:   loc,
		now:   time.Now().In(loc),
		input: in,
		th:    DefaultTheme,
	}
	m.refresh()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tickNow()
}

// ---------- messages & commands ----------

type tickMsg struct{ now time.Time }

func tickNow() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{now: time.Now()} })
}

// refresh re-reads the active page from the manager.
func (m *Model) refresh() {
	m.rows = m.mgr.ListPage(m.mgr.ActivePage())
}

// ---------- Update ----------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = msg.now.In(m.loc)
		return m, tickNow()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.updateList(msg.String())
		case modeTag:
			return m.updateTag(msg.String())
		case modeInput:
			return m.updateInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg.String())
		case modeInfo:
			return m.updateInfo(msg.String())
		case modeHelp:
			m.mode = modeList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateList(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "a":
		m.pending = actionAdd
		return m.openInput("name for the new tracker", ""), nil

	case "r":
		return m.askTag(actionRecord, "record: press the tracker's tag"), nil
	case "n":
		return m.askTag(actionRename, "rename: press the tracker's tag"), nil
	case "x":
		return m.askTag(actionDelete, "delete: press the tracker's tag"), nil
	case "i", "enter":
		return m.askTag(actionInfo, "info: press the tracker's tag"), nil

	case "right", "l":
		m.mgr.NextPage()
		m.refresh()
		return m, nil
	case "left", "h":
		m.mgr.PrevPage()
		m.refresh()
		return m, nil
	case " ":
		m.mgr.FirstPage()
		m.refresh()
		return m, nil

	case "s":
		if m.mgr.ToggleSort() {
			m.setStatus("sorting: next expected first", false)
		} else {
			m.setStatus("sorting: neglected first", false)
		}
		m.refresh()
		return m, nil

	case "?":
		m.mode = modeHelp
		return m, nil
	}
	return m, nil
}

func (m Model) updateTag(k string) (tea.Model, tea.Cmd) {
	if k == "esc" {
		m.mode = modeList
		m.status = ""
		return m, nil
	}
	if len(k) != 1 || k[0] < 'a' || k[0] > 'z' {
		return m, nil
	}
	id, ok := m.mgr.ResolveTag(m.mgr.ActivePage(), k[0])
	if !ok {
		m.setStatus(fmt.Sprintf("no tracker tagged %q on this page", k), true)
		m.mode = modeList
		return m, nil
	}
	m.target = id

	switch m.pending {
	case actionRecord:
		return m.openInput("datetime[, duration]  (empty = now)", ""), nil
	case actionRename:
		t, _ := m.mgr.Get(id)
		return m.openInput("new name", t.Name), nil
	case actionDelete:
		t, _ := m.mgr.Get(id)
		m.mode = modeConfirm
		m.setStatus(fmt.Sprintf("delete %q and its history? (y/n)", t.Name), false)
		return m, nil
	case actionInfo:
		m.mode = modeInfo
		m.status = ""
		return m, nil
	}
	m.mode = modeList
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		m.status = ""
		return m, nil
	case "enter":
		return m.applyInput(strings.TrimSpace(m.input.Value()))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) applyInput(value string) (tea.Model, tea.Cmd) {
	m.input.Blur()
	m.mode = modeList
	if m.pending == actionDeleteEntry || m.pending == actionReplaceEntry {
		m.mode = modeInfo
	}

	var err error
	switch m.pending {
	case actionAdd:
		var id int
		if id, err = m.mgr.Create(value); err == nil {
			m.setStatus(fmt.Sprintf("created tracker %d", id), false)
		}

	case actionRecord:
		if value == "" {
			value = "now"
		}
		var c tracker.Completion
		if c, err = parseCompletion(value, m.loc); err == nil {
			if err = m.mgr.RecordCompletion(m.target, c); err == nil {
				m.setStatus("recorded "+parse.FormatStamp(c.At), false)
			}
		}

	case actionRename:
		if err = m.mgr.Rename(m.target, value); err == nil {
			m.setStatus("renamed", false)
		}

	case actionDeleteEntry:
		var idx int
		if idx, err = strconv.Atoi(value); err != nil {
			err = fmt.Errorf("not an index: %q", value)
		} else if err = m.mgr.DeleteCompletion(m.target, idx); err == nil {
			m.setStatus(fmt.Sprintf("deleted completion %d", idx), false)
		}

	case actionReplaceEntry:
		idx, rest, found := strings.Cut(value, ",")
		if !found {
			err = fmt.Errorf("expected \"index, datetime[, duration]\"")
			break
		}
		var i int
		if i, err = strconv.Atoi(strings.TrimSpace(idx)); err != nil {
			err = fmt.Errorf("not an index: %q", strings.TrimSpace(idx))
			break
		}
		var c tracker.Completion
		if c, err = parseCompletion(strings.TrimSpace(rest), m.loc); err == nil {
			if err = m.mgr.ReplaceCompletion(m.target, i, c); err == nil {
				m.setStatus(fmt.Sprintf("replaced completion %d", i), false)
			}
		}
	}

	if err != nil {
		m.setStatus(err.Error(), true)
	}
	m.refresh()
	return m, nil
}

func (m Model) updateConfirm(k string) (tea.Model, tea.Cmd) {
	m.mode = modeList
	if k == "y" {
		if err := m.mgr.Delete(m.target); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("deleted", false)
		}
		m.refresh()
	} else {
		m.status = ""
	}
	return m, nil
}

func (m Model) updateInfo(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "esc", "q", "i":
		m.mode = modeList
		m.status = ""
		return m, nil
	case "r":
		m.pending = actionRecord
		return m.openInput("datetime[, duration]  (empty = now)", ""), nil
	case "d":
		m.pending = actionDeleteEntry
		return m.openInput("index of the completion to delete", ""), nil
	case "e":
		m.pending = actionReplaceEntry
		return m.openInput("index, datetime[, duration]", ""), nil
	}
	return m, nil
}

func (m Model) openInput(placeholder, value string) Model {
	m.mode = modeInput
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.status = ""
	return m
}

func (m Model) askTag(a action, hint string) Model {
	if len(m.rows) == 0 {
		m.setStatus("no trackers on this page", true)
		return m
	}
	m.pending = a
	m.mode = modeTag
	m.setStatus(hint, false)
	return m
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func parseCompletion(input string, loc *time.Location) (tracker.Completion, error) {
	at, dev, err := parse.ParseCompletion(input, loc)
	if err != nil {
		return tracker.Completion{}, err
	}
	return tracker.Completion{At: at, Deviation: dev}, nil
}

// ---------- View ----------

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTopBar())
	b.WriteByte('\n')

	switch m.mode {
	case modeInfo:
		b.WriteString(m.renderInfo())
	case modeHelp:
		b.WriteString(m.renderHelp())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteByte('\n')
	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) renderTopBar() string {
	title := m.th.Title.Render(version.GetShortVersion())
	clock := m.th.Hint.Render(m.now.Format("Mon 02 Jan 15:04:05"))
	banner := utils.PageBanner(m.mgr.ActivePage(), m.mgr.PageCount())
	if banner != "" {
		banner = "  " + m.th.Label.Render(banner)
	}
	return title + banner + "  " + clock
}

func (m Model) renderList() string {
	var b strings.Builder

	b.WriteString(m.th.Label.Render(fmt.Sprintf(" %-4s %-9s %-9s %s", "tag", "next", "last", "tracker")))
	b.WriteByte('\n')

	for _, row := range m.rows {
		s := row.Tracker.Stats(m.mgr.SpreadMultiplier())

		next, last := "~", "~"
		if !s.NextExpected.IsZero() {
			next = s.NextExpected.Format("06-01-02")
		}
		if c, ok := row.Tracker.LastCompletion(); ok {
			last = c.At.Format("06-01-02")
		}

		line := fmt.Sprintf(" %-4s %-9s %-9s %s", string(row.Tag), next, last, row.Tracker.Name)
		switch {
		case !s.Late.IsZero() && !m.now.Before(s.Late):
			line = m.th.Overdue.Render(line)
		case !s.Early.IsZero() && !m.now.Before(s.Early):
			line = m.th.Due.Render(line)
		case !s.NextExpected.IsZero():
			line = m.th.Fine.Render(line)
		default:
			line = m.th.Tag.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(m.rows) == 0 {
		b.WriteString(m.th.Hint.Render(" no trackers yet; press a to add one"))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) renderInfo() string {
	t, ok := m.mgr.Get(m.target)
	if !ok {
		return m.th.Error.Render(" tracker is gone")
	}
	s := t.Stats(m.mgr.SpreadMultiplier())

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.th.Title.Render(t.Name))
	fmt.Fprintf(&b, "%s %d\n", m.th.Label.Render("  id:         "), t.ID)
	fmt.Fprintf(&b, "%s %s\n", m.th.Label.Render("  created:    "), parse.FormatStamp(t.CreatedAt))
	fmt.Fprintf(&b, "%s %s\n", m.th.Label.Render("  modified:   "), parse.FormatStamp(t.ModifiedAt))
	fmt.Fprintf(&b, "%s (%d)\n", m.th.Label.Render("  completions:"), s.Completions)
	for i, c := range t.History {
		fmt.Fprintf(&b, "    %2d. %s %s\n", i, parse.FormatStamp(c.At), parse.FormatDuration(c.Deviation))
	}
	if s.Intervals > 0 {
		fmt.Fprintf(&b, "%s last %s, average %s, spread %s\n",
			m.th.Label.Render("  intervals:  "),
			parse.FormatDuration(s.LastInterval),
			parse.FormatDuration(s.AverageInterval),
			parse.FormatDuration(s.Spread))
	}
	fmt.Fprintf(&b, "%s %s\n", m.th.Label.Render("  next:       "), parse.FormatStamp(s.NextExpected))
	if !s.NextExpected.IsZero() {
		fmt.Fprintf(&b, "%s %s .. %s\n", m.th.Label.Render("  window:     "),
			parse.FormatStamp(s.Early), parse.FormatStamp(s.Late))
	}
	b.WriteByte('\n')
	b.WriteString(m.th.Hint.Render("  r record | d delete entry | e replace entry | esc back"))
	return b.String()
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"a", "add a tracker"},
		{"r", "record a completion (then press its tag)"},
		{"n", "rename (then press its tag)"},
		{"x", "delete (then press its tag)"},
		{"i / enter", "tracker details (then press its tag)"},
		{"←/→, h/l", "previous / next page"},
		{"space", "first page"},
		{"s", "toggle sort direction"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(m.th.Title.Render(" keys"))
	b.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&b, " %s  %s\n", m.th.Value.Render(fmt.Sprintf("%-10s", r[0])), r[1])
	}
	b.WriteString(m.th.Hint.Render(" any key to close"))
	return b.String()
}

func (m Model) statusBar() string {
	if m.mode == modeInput {
		return m.input.View()
	}
	if m.status != "" {
		if m.statusErr {
			return m.th.Error.Render(m.status)
		}
		return m.th.Success.Render(m.status)
	}
	hint := "a add | r record | i info | n rename | x delete | s sort | ? help | q quit"
	return m.th.Hint.Render(hint)
}
