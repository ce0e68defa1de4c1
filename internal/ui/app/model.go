package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	pagesourceinadapter "pagesource/internal/modules/pagesource/adapter/in"
	"pagesource/internal/modules/pagesource/dto"
	"pagesource/internal/ui/theme"
	pageview "pagesource/internal/ui/views/page"
)

// inputPort routes host input to one open source.
type inputPort interface {
	Name() string
	KeyClick(ctx context.Context, key pagesourceinadapter.NavKey, keyUp bool) (bool, error)
	MouseWheel(ctx context.Context, dx, dy int) (bool, error)
}

type keyMap struct {
	Prev key.Binding
	Next key.Binding
	Help key.Binding
	Quit key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Prev: key.NewBinding(key.WithKeys("up", "pgup"), key.WithHelp("↑/pgup", "previous page")),
		Next: key.NewBinding(key.WithKeys("down", "pgdown"), key.WithHelp("↓/pgdn", "next page")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next}, {k.Help, k.Quit}}
}

// navKeys maps terminal key names onto source navigation keys.
var navKeys = map[string]pagesourceinadapter.NavKey{
	"up":     pagesourceinadapter.KeyUp,
	"pgup":   pagesourceinadapter.KeyPageUp,
	"down":   pagesourceinadapter.KeyDown,
	"pgdown": pagesourceinadapter.KeyPageDown,
}

type navigatedMsg struct {
	ran bool
	err error
}

type Model struct {
	input    inputPort
	page     pageview.Model
	keys     keyMap
	help     help.Model
	showHelp bool
	status   string
	width    int
	height   int
}

func New(view pageview.Port, input inputPort) Model {
	return Model{
		input:  input,
		page:   pageview.New(view, input.Name()),
		keys:   defaultKeys(),
		help:   help.New(),
		status: "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return m.page.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.page.SetSize(m.width, m.contentHeight())
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Prev), key.Matches(msg, m.keys.Next):
			nav := navKeys[msg.String()]
			return m.navigate(func(ctx context.Context) (bool, error) {
				return m.input.KeyClick(ctx, nav, false)
			})
		}
		return m, nil
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m.navigate(func(ctx context.Context) (bool, error) {
				return m.input.MouseWheel(ctx, 0, 1)
			})
		case tea.MouseButtonWheelDown:
			return m.navigate(func(ctx context.Context) (bool, error) {
				return m.input.MouseWheel(ctx, 0, -1)
			})
		}
		return m, nil
	case navigatedMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if !msg.ran {
			return m, nil
		}
		return m, m.page.Load()
	case pageview.LoadedMsg:
		var cmd tea.Cmd
		m.page, cmd = m.page.Update(msg)
		m.status = statusLine(m.page.Snapshot())
		if msg.Err != nil {
			m.status = "error: " + msg.Err.Error()
		}
		return m, cmd
	}
	var cmd tea.Cmd
	m.page, cmd = m.page.Update(msg)
	return m, cmd
}

func (m Model) navigate(step func(ctx context.Context) (bool, error)) (tea.Model, tea.Cmd) {
	m.page.SetLoading()
	m.status = "rendering..."
	return m, func() tea.Msg {
		ran, err := step(context.Background())
		return navigatedMsg{ran: ran, err: err}
	}
}

func (m Model) contentHeight() int {
	return max(m.height-2, 1)
}

func (m Model) View() string {
	statusBar := m.renderStatusBar()
	content := m.page.View()
	if m.showHelp {
		content = lipgloss.NewStyle().Width(m.width).Height(m.contentHeight()).
			Render(m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

func (m Model) renderStatusBar() string {
	left := theme.Title.Render(m.input.Name()) + "  " + m.status
	right := theme.Muted.Render("?:help  ↑/↓:page  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func statusLine(s dto.Snapshot) string {
	size := "no page"
	if s.HasTexture {
		size = fmt.Sprintf("%dx%d", s.Width, s.Height)
	}
	return fmt.Sprintf("page %d  %s  cycles %d  runs %d  %s",
		s.Page, size, s.Stats.Cycles, s.Stats.EngineRuns, s.Stats.LastCycle.Round(time.Millisecond))
}
