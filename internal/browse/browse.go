// Package browse shows rendered output in a scrollable full-screen pager.
package browse

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chrome is the number of lines taken by the title and status bar.
const chrome = 2

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// Run shows content under title until the user quits.
func Run(ctx context.Context, title, content string, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)
	if _, err := tea.NewProgram(NewModel(title, content), opts...).Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// Model is the pager state.
type Model struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

// NewModel returns a pager for content. It sizes itself on the first
// window size message.
func NewModel(title, content string) Model {
	return Model{title: title, content: content}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := max(msg.Height-chrome, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	status := fmt.Sprintf("%3.f%%  q quit · ↑/↓ scroll", m.viewport.ScrollPercent()*100)
	return titleStyle.Render(m.title) + "\n" + m.viewport.View() + "\n" + statusStyle.Render(status)
}

// Ready reports whether the pager has been sized.
func (m Model) Ready() bool { return m.ready }

// Size returns the viewport dimensions.
func (m Model) Size() (width, height int) {
	return m.viewport.Width, m.viewport.Height
}

// AtTop reports whether the viewport shows the first line.
func (m Model) AtTop() bool { return m.viewport.AtTop() }
