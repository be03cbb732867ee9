package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f87171"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fbbf24"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))
	headStyle = lipgloss.NewStyle().
			Bold(true)
)

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error:")+" "+err.Error())
}

func printWarnings(w io.Writer, warnings []types.Warning) {
	for _, warn := range warnings {
		fmt.Fprintln(w, warnStyle.Render("warning:")+" "+warn.String())
	}
}

const (
	defaultWidth = 80
	maxWidth     = 100
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return min(width, maxWidth)
}

// renderMarkdown styles markdown with glamour for terminals. Other writers,
// and any rendering failure, get the markdown unchanged.
func renderMarkdown(w io.Writer, markdown string) string {
	if !isTerminal(w) {
		return markdown
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return markdown
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth(w)),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
