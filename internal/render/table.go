package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

const maxNameWidth = 32

// StyledText applies a lipgloss style to text when colors are enabled.
// When colors are disabled, it returns the plain text unchanged.
func StyledText(text string, style lipgloss.Style) string {
	if ColorsEnabled() {
		return style.Render(text)
	}
	return text
}

// truncate shortens a string to maxLen runes, appending an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// EmptyState renders a styled empty-state message with an optional contextual hint.
// When colors are enabled the message is rendered in dim gray and the hint is italic.
// When quiet is true the hint is suppressed.
func EmptyState(message, hint string, quiet bool) string {
	if !ColorsEnabled() {
		if quiet || hint == "" {
			return message
		}
		return message + "\n" + hint
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	result := dimStyle.Render(message)
	if !quiet && hint != "" {
		result += "\n" + hintStyle.Render(hint)
	}
	return result
}

// grid renders headers and rows as a bordered table, or as space-aligned
// columns when colors are disabled. Columns listed in numeric are right
// aligned.
func grid(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}

	if !ColorsEnabled() {
		return plainGrid(headers, rows, right)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if right[col] {
				return s.Align(lipgloss.Right)
			}
			if col == 0 {
				return s.Bold(true)
			}
			return s
		})
	return t.Render()
}

func plainGrid(headers []string, rows [][]string, right map[int]bool) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if right[i] {
				parts[i] = fmt.Sprintf("%*s", widths[i], cell)
			} else {
				parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
			}
		}
		fmt.Fprintln(&b, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(headers)
	total := 2 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	fmt.Fprintln(&b, strings.Repeat("-", total))
	for _, row := range rows {
		line(row)
	}
	return b.String()
}

// RenderAccounts renders the local accounts as a table.
func RenderAccounts(accounts []*model.Account) string {
	if len(accounts) == 0 {
		return EmptyState("No accounts found.", "Create one with: mailvault init --email <address>", false)
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []string{
			fmt.Sprint(a.ID),
			a.Email(),
			truncate(a.Name, maxNameWidth),
			humanize.Time(a.CreatedAt),
		})
	}
	return grid([]string{"ID", "Address", "Name", "Created"}, rows, 0)
}

// RenderRowCounts renders per-table row counts in link file table order,
// followed by a total. Tables with no rows are listed with zero.
func RenderRowCounts(counts map[linkfile.Table]int) string {
	rows := make([][]string, 0, len(linkfile.Tables)+1)
	total := 0
	for _, t := range linkfile.Tables {
		n := counts[t]
		total += n
		rows = append(rows, []string{string(t), humanize.Comma(int64(n))})
	}
	rows = append(rows, []string{"total", humanize.Comma(int64(total))})
	return grid([]string{"Table", "Rows"}, rows, 1)
}

// RenderParts renders the parts listed in an archive manifest.
func RenderParts(parts []archive.Part) string {
	if len(parts) == 0 {
		return EmptyState("Archive has no parts.", "", true)
	}
	rows := make([][]string, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, []string{p.Name, humanize.Comma(int64(p.Rows)), humanize.Bytes(uint64(p.Size))})
	}
	return grid([]string{"Part", "Rows", "Size"}, rows, 1, 2)
}
