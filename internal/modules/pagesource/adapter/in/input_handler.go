package in

import (
	"context"

	"pagesource/internal/modules/pagesource/dto"
	pagesourcein "pagesource/internal/modules/pagesource/port/in"
)

// NavKey is a host key the source reacts to while it has input focus.
type NavKey int

const (
	KeyOther NavKey = iota
	KeyUp
	KeyPageUp
	KeyDown
	KeyPageDown
)

// InputHandler turns host input events for one source into page changes.
// Every method reports whether a load cycle ran.
type InputHandler struct {
	usecase pagesourcein.Usecase
	name    string
}

func NewInputHandler(usecase pagesourcein.Usecase, name string) InputHandler {
	return InputHandler{usecase: usecase, name: name}
}

func (h InputHandler) Name() string {
	return h.name
}

// KeyClick acts on key-down only.
func (h InputHandler) KeyClick(ctx context.Context, key NavKey, keyUp bool) (bool, error) {
	if keyUp {
		return false, nil
	}
	switch key {
	case KeyUp, KeyPageUp:
		return h.step(ctx, dto.DirectionPrevious)
	case KeyDown, KeyPageDown:
		return h.step(ctx, dto.DirectionNext)
	default:
		return false, nil
	}
}

// MouseWheel goes back on a positive vertical delta and forward on a
// negative one. Horizontal movement is ignored.
func (h InputHandler) MouseWheel(ctx context.Context, _, dy int) (bool, error) {
	switch {
	case dy > 0:
		return h.step(ctx, dto.DirectionPrevious)
	case dy < 0:
		return h.step(ctx, dto.DirectionNext)
	default:
		return false, nil
	}
}

// Hotkey handles one half of the previous/next hotkey pair. Releases are
// ignored.
func (h InputHandler) Hotkey(ctx context.Context, direction dto.Direction, pressed bool) (bool, error) {
	if !pressed {
		return false, nil
	}
	return h.step(ctx, direction)
}

func (h InputHandler) step(ctx context.Context, direction dto.Direction) (bool, error) {
	if _, err := h.usecase.Navigate(ctx, dto.NavigateInput{Name: h.name, Direction: direction}); err != nil {
		return false, err
	}
	return true, nil
}
