package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openmep/sleever/pkg/model"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// CategoryListModel - Interactive category selection
// =============================================================================

// CategoryListModel is the bubbletea model for picking the MEP categories
// of a run. Space toggles a category, enter confirms the selection.
type CategoryListModel struct {
	Categories []model.Category
	Cursor     int
	Checked    map[model.Category]bool
	Confirmed  bool
}

// NewCategoryListModel creates a category picker with everything checked.
func NewCategoryListModel() CategoryListModel {
	m := CategoryListModel{
		Categories: model.Categories(),
		Checked:    make(map[model.Category]bool),
	}
	for _, c := range m.Categories {
		m.Checked[c] = true
	}
	return m
}

// Selected returns the confirmed categories in processing order, or nil
// when the picker was quit without confirming.
func (m CategoryListModel) Selected() []model.Category {
	if !m.Confirmed {
		return nil
	}
	var out []model.Category
	for _, c := range m.Categories {
		if m.Checked[c] {
			out = append(out, c)
		}
	}
	return out
}

func (m CategoryListModel) Init() tea.Cmd {
	return nil
}

func (m CategoryListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Categories)-1 {
				m.Cursor++
			}
		case " ":
			c := m.Categories[m.Cursor]
			m.Checked[c] = !m.Checked[c]
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m CategoryListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Categories"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ run  q quit"))
	b.WriteString("\n\n")

	for i, c := range m.Categories {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if m.Checked[c] {
			check = "[" + StyleSuccess.Render("x") + "]"
		}

		line := fmt.Sprintf("%s%s %s", cursor, check, c)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else if m.Checked[c] {
			b.WriteString(listNormalStyle.Render(line))
		} else {
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d selected]", m.countChecked())))

	return b.String()
}

func (m CategoryListModel) countChecked() int {
	n := 0
	for _, c := range m.Categories {
		if m.Checked[c] {
			n++
		}
	}
	return n
}

// pickCategories runs the interactive picker and returns the selection.
func pickCategories() ([]model.Category, error) {
	final, err := tea.NewProgram(NewCategoryListModel()).Run()
	if err != nil {
		return nil, fmt.Errorf("category picker: %w", err)
	}
	picked, ok := final.(CategoryListModel)
	if !ok || !picked.Confirmed {
		return nil, nil
	}
	return picked.Selected(), nil
}
