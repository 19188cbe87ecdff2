package ui

import "github.com/charmbracelet/lipgloss"

// putz's palette: fresh greens for done work, warm reds for hot tasks.
var (
	// Primary colors
	Mint   = lipgloss.Color("#3EB489")
	Lemon  = lipgloss.Color("#FFF44F")
	Tomato = lipgloss.Color("#FF6347")
	Slate  = lipgloss.Color("#708090")
	Sky    = lipgloss.Color("#4FA3F7")
	Dim    = lipgloss.Color("#666666")
	Bright = lipgloss.Color("#FFFFFF")
	Subtle = lipgloss.Color("#AAAAAA")

	// Semantic styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Mint)

	Subtitle = lipgloss.NewStyle().
			Foreground(Lemon)

	Success = lipgloss.NewStyle().
		Foreground(Mint)

	Error = lipgloss.NewStyle().
		Foreground(Tomato)

	Warning = lipgloss.NewStyle().
		Foreground(Lemon)

	Info = lipgloss.NewStyle().
		Foreground(Sky)

	Muted = lipgloss.NewStyle().
		Foreground(Dim)

	Accent = lipgloss.NewStyle().
		Foreground(Mint).
		Bold(true)

	Hot = lipgloss.NewStyle().
		Foreground(Tomato).
		Bold(true)

	// Component styles
	Banner = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Mint).
		Padding(0, 1)

	Tag = lipgloss.NewStyle().
		Foreground(Bright).
		Background(Slate).
		Padding(0, 1).
		Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Lemon).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	BarStyle = lipgloss.NewStyle().
			Foreground(Mint)
)

// Icons used across command output.
const (
	IconBroom   = "🧹 "
	IconDone    = "✅"
	IconFire    = "🔥"
	IconTrophy  = "🏆"
	IconMedal   = "🏅"
	IconStar    = "⭐"
	IconLock    = "🔒"
	IconCal     = "📅"
	IconArchive = "📦"
	IconWarn    = "⚠️ "
	IconError   = "✗ "
	IconOk      = "✓ "
	IconArrow   = "→"
	IconDot     = "·"
)
