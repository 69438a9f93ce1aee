// Package ui implements the interactive filter view: a search input on
// top, the matching records below, re-filtered as the user types.
package ui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhizhunbao/fieldsift/internal/config"
	"github.com/zhizhunbao/fieldsift/internal/formatter"
	"github.com/zhizhunbao/fieldsift/pkg/search"
)

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

// SearchDebounceMsg is sent after the debounce delay to trigger filter
// execution. The ID is compared against the model's counter so only the
// latest keystroke's query is applied.
type SearchDebounceMsg struct {
	ID    int
	Query string
}

// debouncedFilter returns a tea.Cmd that waits for the debounce delay
// then sends a SearchDebounceMsg.
func debouncedFilter(id int, query string, delayMs int) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(time.Duration(delayMs) * time.Millisecond)
		return SearchDebounceMsg{ID: id, Query: query}
	}
}

// Model is the Bubble Tea model for the interactive filter.
type Model struct {
	Input    textinput.Model
	Records  []search.Record
	Cols     []search.Column
	Filtered []search.Record

	Keyword     string // committed (debounced, trimmed) keyword
	DebounceMs  int    // 0 filters on every keystroke
	PerField    bool
	ResultLimit int
	IdentityKey string
	NoColor     bool

	WinWidth  int
	WinHeight int

	debounceID   int // counter for debounce message correlation
	pendingQuery string
	lastIDs      []string
	quitting     bool
}

// InitialModel builds the interactive model over a loaded collection.
func InitialModel(records []search.Record, cols []search.Column, cfg config.Config, noColor bool) Model {
	ti := textinput.New()
	ti.Placeholder = cfg.Placeholder
	ti.CharLimit = 500
	ti.SetWidth(80) // adjusted on the first WindowSizeMsg
	ti.Prompt = "> "
	if cfg.Focused() {
		ti.Focus()
	}

	m := Model{
		Input:       ti,
		Records:     records,
		Cols:        cols,
		Filtered:    records,
		DebounceMs:  cfg.Debounce(),
		PerField:    cfg.PerField,
		ResultLimit: cfg.ResultLimit,
		IdentityKey: cfg.IdentityKey,
		NoColor:     noColor || cfg.NoColor,
	}
	m.lastIDs = identitySequence(records, m.IdentityKey)
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SearchDebounceMsg:
		// Only apply when this is the latest debounce request.
		if msg.ID == m.debounceID && msg.Query == m.pendingQuery {
			m.commit(msg.Query)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.WinWidth = msg.Width
		m.WinHeight = msg.Height
		if msg.Width > 4 {
			m.Input.SetWidth(msg.Width - 4)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.Input.Value() != "" {
				m.Input.SetValue("")
				m.debounceID++
				m.commit("")
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case "enter":
			// Commit immediately, bypassing the debounce timer.
			m.debounceID++
			m.commit(m.Input.Value())
			return m, nil
		}
	}

	before := m.Input.Value()
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	after := m.Input.Value()

	if after != before {
		m.debounceID++
		m.pendingQuery = after
		if m.DebounceMs <= 0 {
			m.commit(after)
			return m, cmd
		}
		return m, tea.Batch(cmd, debouncedFilter(m.debounceID, after, m.DebounceMs))
	}
	return m, cmd
}

// commit trims and applies a query, refreshing the filtered set only
// when the result's identity sequence actually changed.
func (m *Model) commit(query string) {
	keyword := strings.TrimSpace(query)
	m.pendingQuery = query
	if keyword == m.Keyword && m.lastIDs != nil {
		return
	}
	m.Keyword = keyword

	var filtered []search.Record
	if m.PerField {
		filtered = search.FilterPerField(m.Records, keyword, m.Cols)
	} else {
		filtered = search.Filter(m.Records, keyword, m.Cols)
	}
	ids := identitySequence(filtered, m.IdentityKey)
	if equalIDs(ids, m.lastIDs) {
		return
	}
	m.lastIDs = ids
	m.Filtered = filtered
}

func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	width := m.WinWidth
	if width <= 0 {
		width = formatter.DetectTerminalWidth()
	}

	shown := m.Filtered
	limited := false
	if m.ResultLimit > 0 && len(shown) > m.ResultLimit {
		shown = shown[:m.ResultLimit]
		limited = true
	}

	status := fmt.Sprintf("%d / %d records", len(m.Filtered), len(m.Records))
	if limited {
		status += fmt.Sprintf(" (showing first %d)", m.ResultLimit)
	}
	if !m.NoColor {
		status = statusStyle.Render(status)
	}

	var b strings.Builder
	b.WriteString(m.Input.View() + "\n")
	b.WriteString(status + "\n\n")
	b.WriteString(formatter.RenderRecords(shown, m.Cols, m.NoColor, width))

	v := tea.NewView(b.String())
	v.AltScreen = true
	return v
}

// Run starts the interactive filter and returns the final filtered set
// as of quitting.
func Run(records []search.Record, cols []search.Column, cfg config.Config, noColor bool, opts ...tea.ProgramOption) ([]search.Record, error) {
	m := InitialModel(records, cols, cfg, noColor)
	prog := tea.NewProgram(&m, opts...)
	finalModel, err := prog.Run()
	if err != nil {
		return nil, err
	}
	if fm, ok := finalModel.(*Model); ok && fm != nil {
		return fm.Filtered, nil
	}
	return nil, nil
}

func identitySequence(records []search.Record, key string) []string {
	if key == "" {
		key = "id"
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		if v, ok := rec[key]; ok && v != nil {
			ids[i] = formatter.Stringify(v)
			continue
		}
		ids[i] = fmt.Sprintf("#%d", i)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
