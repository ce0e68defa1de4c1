package page

import (
	"context"
	"fmt"
	"image"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pagesource/internal/modules/pagesource/dto"
	"pagesource/internal/ui/theme"
)

// Port is what the view reads from an open source.
type Port interface {
	Snapshot(ctx context.Context, name string) (dto.Snapshot, error)
	Frame(ctx context.Context, name string) (dto.Frame, error)
}

// imager is implemented by textures that can be read back on the CPU.
type imager interface {
	Image(width, height int) (*image.RGBA, error)
}

// LoadedMsg carries the state after a load cycle.
type LoadedMsg struct {
	Snapshot dto.Snapshot
	Image    image.Image
	Err      error
}

type Model struct {
	port    Port
	name    string
	spinner spinner.Model

	snapshot dto.Snapshot
	img      image.Image
	err      error
	loading  bool
	width    int
	height   int
}

func New(port Port, name string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, name: name, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.Load())
}

// Load reads the current snapshot and frame of the source.
func (m Model) Load() tea.Cmd {
	port, name := m.port, m.name
	return func() tea.Msg {
		return Fetch(context.Background(), port, name)
	}
}

// Fetch builds a LoadedMsg synchronously.
func Fetch(ctx context.Context, port Port, name string) LoadedMsg {
	snap, err := port.Snapshot(ctx, name)
	if err != nil {
		return LoadedMsg{Err: err}
	}
	frame, err := port.Frame(ctx, name)
	if err != nil {
		return LoadedMsg{Snapshot: snap, Err: err}
	}
	if frame.Texture == nil {
		return LoadedMsg{Snapshot: snap}
	}
	tex, ok := frame.Texture.(imager)
	if !ok {
		return LoadedMsg{Snapshot: snap, Err: fmt.Errorf("texture %T cannot be previewed", frame.Texture)}
	}
	img, err := tex.Image(frame.Width, frame.Height)
	return LoadedMsg{Snapshot: snap, Image: img, Err: err}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetLoading shows the spinner until the next LoadedMsg.
func (m *Model) SetLoading() {
	m.loading = true
}

func (m Model) Snapshot() dto.Snapshot {
	return m.snapshot
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil || msg.Snapshot.Name != "" {
			m.snapshot = msg.Snapshot
			m.img = msg.Image
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	box := lipgloss.NewStyle().Width(m.width).Height(m.height)
	switch {
	case m.loading && m.img == nil:
		return box.Render(m.spinner.View() + " rendering page " + fmt.Sprint(m.snapshot.Page))
	case m.err != nil:
		return box.Render(theme.Hot.Render("error: ") + m.err.Error())
	case m.img == nil:
		return box.Render(lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render(fmt.Sprintf("page %d: nothing rendered", m.snapshot.Page))))
	}
	b := m.img.Bounds()
	cols, rows := Fit(b.Dx(), b.Dy(), m.width, m.height)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, HalfBlocks(m.img, cols, rows))
}
