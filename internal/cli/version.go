package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print mailvault version information",
	Annotations: map[string]string{"skipDB": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		w := getWriter(cmd)

		bold := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		msg := fmt.Sprintf("mailvault version %s %s",
			render.StyledText(version, bold),
			render.StyledText(fmt.Sprintf("(commit: %s, built: %s, link file v%d)", commit, buildDate, linkfile.CurrentVersion), dim),
		)

		w.Success(struct {
			Version     string `json:"version"`
			Commit      string `json:"commit"`
			BuildDate   string `json:"build_date"`
			FileVersion int    `json:"file_version"`
		}{
			Version:     version,
			Commit:      commit,
			BuildDate:   buildDate,
			FileVersion: linkfile.CurrentVersion,
		}, msg)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
