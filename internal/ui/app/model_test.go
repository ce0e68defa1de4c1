package app_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	pagesourceinadapter "pagesource/internal/modules/pagesource/adapter/in"
	"pagesource/internal/modules/pagesource/dto"
	"pagesource/internal/ui/app"
)

type fakeView struct {
	snapshot dto.Snapshot
}

func (f *fakeView) Snapshot(context.Context, string) (dto.Snapshot, error) { return f.snapshot, nil }
func (f *fakeView) Frame(context.Context, string) (dto.Frame, error)       { return dto.Frame{}, nil }

type fakeInput struct {
	keys   []pagesourceinadapter.NavKey
	wheels []int
}

func (f *fakeInput) Name() string { return "deck" }

func (f *fakeInput) KeyClick(_ context.Context, key pagesourceinadapter.NavKey, keyUp bool) (bool, error) {
	if keyUp {
		return false, nil
	}
	f.keys = append(f.keys, key)
	return true, nil
}

func (f *fakeInput) MouseWheel(_ context.Context, _, dy int) (bool, error) {
	f.wheels = append(f.wheels, dy)
	return true, nil
}

func run(t *testing.T, m tea.Model, msg tea.Msg) (tea.Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd == nil {
		return next, nil
	}
	return next, cmd()
}

func TestKeysRouteToSource(t *testing.T) {
	t.Parallel()
	input := &fakeInput{}
	var m tea.Model = app.New(&fakeView{}, input)

	m, _ = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = run(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	_, _ = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	want := []pagesourceinadapter.NavKey{pagesourceinadapter.KeyDown, pagesourceinadapter.KeyPageUp}
	if len(input.keys) != len(want) {
		t.Fatalf("keys = %v, want %v", input.keys, want)
	}
	for i := range want {
		if input.keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", input.keys, want)
		}
	}
}

func TestWheelRoutesToSource(t *testing.T) {
	t.Parallel()
	input := &fakeInput{}
	var m tea.Model = app.New(&fakeView{}, input)

	m, _ = run(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	_, _ = run(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})

	if len(input.wheels) != 2 || input.wheels[0] != 1 || input.wheels[1] != -1 {
		t.Fatalf("wheel deltas = %v, want [1 -1]", input.wheels)
	}
}

func TestStatusBarShowsStats(t *testing.T) {
	t.Parallel()
	view := &fakeView{snapshot: dto.Snapshot{Name: "deck", Page: 3, Stats: dto.Stats{Cycles: 4, EngineRuns: 5}}}
	var m tea.Model = app.New(view, &fakeInput{})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})

	m, msg := run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, msg = run(t, m, msg)
	m, _ = m.Update(msg)

	out := m.View()
	if !strings.Contains(out, "page 3") || !strings.Contains(out, "cycles 4") || !strings.Contains(out, "runs 5") {
		t.Fatalf("status bar missing stats:\n%s", out)
	}
}
