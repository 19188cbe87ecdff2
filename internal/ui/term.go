package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is assumed when the terminal size is unknown.
const DefaultWidth = 80

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetupColor drops styling when stdout is piped or NO_COLOR is set.
func SetupColor() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || !IsTTY(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Width returns the terminal width of stdout, or DefaultWidth.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Bar renders value/max as a horizontal bar of at most width cells.
func Bar(value, max, width int) string {
	if width <= 0 || max <= 0 || value <= 0 {
		return ""
	}
	n := value * width / max
	if n > width {
		n = width
	}
	if n == 0 {
		n = 1
	}
	return BarStyle.Render(strings.Repeat("█", n))
}
