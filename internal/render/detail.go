package render

import (
	"fmt"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
)

// Detail is the inspection view of a link file or an archive. Manifest is
// nil for a bare link file; for an archive, Rows describe its complete part.
type Detail struct {
	Path      string
	Size      int64
	Encrypted bool
	Header    linkfile.Header
	Manifest  *archive.Manifest
	Rows      map[linkfile.Table]int
	Unknown   int
	Unparsed  int
}

// RenderDetail renders d as terminal markdown.
func RenderDetail(d Detail) (string, error) {
	return RenderMarkdown(DetailMarkdown(d))
}

// DetailMarkdown builds the markdown document behind RenderDetail.
func DetailMarkdown(d Detail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", filepath.Base(d.Path))

	h := d.Header
	fmt.Fprintf(&b, "- **Account:** %s\n", h.Address())
	fmt.Fprintf(&b, "- **File version:** %d\n", h.FileVersion)
	fmt.Fprintf(&b, "- **Size:** %s\n", humanize.Bytes(uint64(d.Size)))
	if h.Language != "" {
		fmt.Fprintf(&b, "- **Language:** %s\n", h.Language)
	}
	fmt.Fprintf(&b, "- **Footer:** %s\n", yesNo(h.HasCriptextFooter))
	fmt.Fprintf(&b, "- **Dark theme:** %s\n", yesNo(h.DarkTheme))
	if d.Manifest != nil {
		fmt.Fprintf(&b, "- **Encrypted:** %s\n", yesNo(d.Encrypted))
		if d.Manifest.Kind != "" {
			fmt.Fprintf(&b, "- **Kind:** %s\n", d.Manifest.Kind)
		}
		fmt.Fprintf(&b, "- **Created:** %s\n", humanize.Time(d.Manifest.CreatedAt))
	}

	if h.Signature != "" {
		fmt.Fprintf(&b, "\n## Signature\n\n%s\n", h.Signature)
	}

	if d.Manifest != nil && len(d.Manifest.Parts) > 0 {
		b.WriteString("\n## Parts\n\n| Part | Rows | Size |\n|---|---:|---:|\n")
		for _, p := range d.Manifest.Parts {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Name, humanize.Comma(int64(p.Rows)), humanize.Bytes(uint64(p.Size)))
		}
	}

	b.WriteString("\n## Rows\n\n| Table | Rows |\n|---|---:|\n")
	total := 0
	for _, t := range linkfile.Tables {
		n := d.Rows[t]
		total += n
		fmt.Fprintf(&b, "| %s | %s |\n", t, humanize.Comma(int64(n)))
	}
	fmt.Fprintf(&b, "| **total** | **%s** |\n", humanize.Comma(int64(total)))

	if d.Unknown > 0 || d.Unparsed > 0 {
		fmt.Fprintf(&b, "\n%d rows from unknown tables, %d unreadable lines.\n", d.Unknown, d.Unparsed)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
