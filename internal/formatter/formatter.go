// Package formatter renders filtered record collections as terminal
// tables and provides compact stringification of arbitrary values.
package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/zhizhunbao/fieldsift/pkg/search"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("236"))
	cellStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// minColWidth keeps columns readable when many fields compete for space.
const minColWidth = 6

// DetectTerminalWidth returns the best-effort terminal width by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS
// environment variable, then to a generous default for CI and pipes.
func DetectTerminalWidth() int {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
			return w
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w
		}
	}
	return defaultFallbackTermWidth
}

// Stringify returns a compact single-line representation for an
// arbitrary record field value. Maps and slices marshal to compact JSON
// so they stay readable in one cell.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeScalarString(t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	case map[string]any, []any:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// escapeScalarString flattens control characters so table rows stay
// single-line.
func escapeScalarString(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// HeaderKeys derives the table columns for a record collection. With
// column descriptors the declared order wins and labels override keys;
// without them the union of record fields is used in sorted order, with
// "id" hoisted to the front when present.
func HeaderKeys(records []search.Record, cols []search.Column) (keys []string, labels []string) {
	if len(cols) > 0 {
		for _, col := range cols {
			keys = append(keys, col.Key)
			label := col.Label
			if label == "" {
				label = col.Key
			}
			labels = append(labels, label)
		}
		return keys, labels
	}

	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if k == "id" && i > 0 {
			copy(keys[1:i+1], keys[:i])
			keys[0] = "id"
			break
		}
	}
	return keys, append([]string(nil), keys...)
}

// RenderRecords renders a record collection as a table. maxWidth limits
// the full table width (0 means auto-detect from the terminal).
func RenderRecords(records []search.Record, cols []search.Column, noColor bool, maxWidth int) string {
	if len(records) == 0 {
		return "(no records)\n"
	}
	if maxWidth <= 0 {
		maxWidth = DetectTerminalWidth()
	}

	keys, labels := HeaderKeys(records, cols)
	if len(keys) == 0 {
		return "(no fields)\n"
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(keys))
		for j, k := range keys {
			row[j] = Stringify(rec[k])
		}
		rows[i] = row
	}

	widths := columnWidths(labels, rows, maxWidth)

	var b strings.Builder
	writeRow(&b, labels, widths, func(s string) string {
		if noColor {
			return s
		}
		return headerStyle.Render(s)
	})

	total := 0
	for _, w := range widths {
		total += w + 2
	}
	separator := strings.Repeat("─", total-2)
	if !noColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator + "\n")

	for _, row := range rows {
		writeRow(&b, row, widths, func(s string) string {
			if noColor {
				return s
			}
			return cellStyle.Render(s)
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int, style func(string) string) {
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cell = padRight(truncate(cell, w), w)
		b.WriteString(style(cell))
		if i != len(widths)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
}

// columnWidths sizes each column to its natural content width, then
// shrinks the widest columns proportionally when the table exceeds
// maxWidth.
func columnWidths(labels []string, rows [][]string, maxWidth int) []int {
	widths := make([]int, len(labels))
	for i, label := range labels {
		widths[i] = runewidth.StringWidth(label)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	sepTotal := 2 * (len(widths) - 1)
	total := sepTotal
	for _, w := range widths {
		total += w
	}
	if total <= maxWidth {
		return widths
	}

	// Over budget: repeatedly shave the widest column until it fits or
	// every column has hit the floor.
	for total > maxWidth {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColWidth {
			break
		}
		widths[widest]--
		total--
	}
	return widths
}

// truncate shortens a string to maxLen display cells, appending an
// ellipsis when content is cut.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// padRight pads a string to the specified display width.
func padRight(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
