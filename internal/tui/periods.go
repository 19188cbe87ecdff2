// Package tui holds the interactive period picker used by `putz period show`.
package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/ui"
)

// PeriodPicker lists a household's periods and lets the user choose one to
// view. Typing narrows the list by label.
type PeriodPicker struct {
	title   string
	periods []domain.Period
	visible []int
	query   string
	cursor  int
	offset  int
	height  int

	chosen   *domain.Period
	canceled bool
}

// NewPeriodPicker returns a picker over periods, listed in the given order.
func NewPeriodPicker(title string, periods []domain.Period) *PeriodPicker {
	p := &PeriodPicker{title: title, periods: periods, height: 10}
	p.filter()
	return p
}

// PickPeriod runs the picker and returns the chosen period, or nil when the
// user cancels.
func PickPeriod(title string, periods []domain.Period) (*domain.Period, error) {
	m, err := tea.NewProgram(NewPeriodPicker(title, periods)).Run()
	if err != nil {
		return nil, fmt.Errorf("period picker: %w", err)
	}
	p := m.(*PeriodPicker)
	if p.canceled {
		return nil, nil
	}
	return p.chosen, nil
}

// IsTTY returns true when stdin is connected to a terminal.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func (p *PeriodPicker) Init() tea.Cmd {
	return nil
}

func (p *PeriodPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h >= 3 {
			p.height = h
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			p.canceled = true
			return p, tea.Quit
		case "enter":
			if len(p.visible) > 0 {
				chosen := p.periods[p.visible[p.cursor]]
				p.chosen = &chosen
			}
			return p, tea.Quit
		case "up", "ctrl+p":
			if p.cursor > 0 {
				p.cursor--
				if p.cursor < p.offset {
					p.offset = p.cursor
				}
			}
		case "down", "ctrl+n":
			if p.cursor < len(p.visible)-1 {
				p.cursor++
				if p.cursor >= p.offset+p.height {
					p.offset = p.cursor - p.height + 1
				}
			}
		case "backspace":
			if p.query != "" {
				r := []rune(p.query)
				p.query = string(r[:len(r)-1])
				p.filter()
			}
		default:
			if msg.Type == tea.KeyRunes {
				p.query += string(msg.Runes)
				p.filter()
			}
		}
	}
	return p, nil
}

func (p *PeriodPicker) View() string {
	var b strings.Builder
	if p.title != "" {
		b.WriteString("  " + ui.Title.Render(p.title) + "\n\n")
	}
	prompt := lipgloss.NewStyle().Foreground(ui.Mint).Bold(true).Render("> ")
	b.WriteString("  " + prompt + p.query + "\n\n")

	if len(p.visible) == 0 {
		b.WriteString("  " + ui.Muted.Render("No matching periods") + "\n")
	}
	end := min(p.offset+p.height, len(p.visible))
	for i := p.offset; i < end; i++ {
		b.WriteString(renderPeriod(p.periods[p.visible[i]], i == p.cursor) + "\n")
	}

	b.WriteString("\n" + ui.Muted.Render(fmt.Sprintf("  %d/%d · ↑↓ navigate · enter select · esc cancel", len(p.visible), len(p.periods))) + "\n")
	return b.String()
}

// filter keeps periods whose label or date range contains the query,
// ignoring case.
func (p *PeriodPicker) filter() {
	q := strings.ToLower(p.query)
	p.visible = p.visible[:0]
	for i, per := range p.periods {
		hay := strings.ToLower(per.Label() + " " + domain.RangeLabel(per.StartDate, per.EndDate))
		if q == "" || strings.Contains(hay, q) {
			p.visible = append(p.visible, i)
		}
	}
	p.cursor = 0
	p.offset = 0
}

func renderPeriod(per domain.Period, selected bool) string {
	pointer := "  "
	title := lipgloss.NewStyle()
	if selected {
		pointer = ui.Accent.Render(ui.IconArrow + " ")
		title = title.Foreground(ui.Mint).Bold(true)
	}
	line := "  " + pointer + title.Render(per.Label())
	return line + "  " + statusTag(per)
}

func statusTag(per domain.Period) string {
	switch per.Status() {
	case domain.StatusActive:
		return ui.Success.Render("active")
	case domain.StatusArchived:
		return ui.Muted.Render(fmt.Sprintf("%s %d pts", ui.IconArchive, per.Summary.TotalPoints))
	default:
		return ui.Muted.Render("legacy")
	}
}
