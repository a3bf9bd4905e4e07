package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/mailvault/internal/render"
)

// writeHumanSuccess writes a human-readable success message to w.
// Single-line messages get a checkmark prefix; multi-line content such as
// tables and inspect views is printed as-is.
func writeHumanSuccess(w io.Writer, message string) {
	if message == "" {
		return
	}
	if strings.Contains(message, "\n") {
		fmt.Fprintln(w, message)
		return
	}
	if render.ColorsEnabled() {
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("\u2714")
		fmt.Fprintf(w, "%s %s\n", icon, message)
	} else {
		fmt.Fprintln(w, message)
	}
}

// hints are printed under errors whose fix is not obvious from the message.
var hints = map[ErrorCode]string{
	ErrMetadata: "The file was exported for another account or is damaged.",
	ErrFormat:   "Export the mailbox again with this version of mailvault.",
}

// writeHumanError writes a human-readable error message to w, followed by a
// hint for the error code when one exists.
func writeHumanError(w io.Writer, err error, code ErrorCode) {
	hint := hints[code]
	if render.ColorsEnabled() {
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Render("\u2718")
		label := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Render("Error:")
		fmt.Fprintf(w, "%s %s %s\n", icon, label, err)
		if hint != "" {
			fmt.Fprintln(w, lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true).Render(hint))
		}
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err)
	if hint != "" {
		fmt.Fprintln(w, hint)
	}
}
