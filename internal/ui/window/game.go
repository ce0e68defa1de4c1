package window

import (
	"context"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	pagesourceinadapter "pagesource/internal/modules/pagesource/adapter/in"
	"pagesource/internal/modules/pagesource/dto"
	"pagesource/internal/platform/config"
	"pagesource/internal/platform/logging"
)

type framePort interface {
	Frame(ctx context.Context, name string) (dto.Frame, error)
}

type inputPort interface {
	Name() string
	KeyClick(ctx context.Context, key pagesourceinadapter.NavKey, keyUp bool) (bool, error)
	MouseWheel(ctx context.Context, dx, dy int) (bool, error)
	Hotkey(ctx context.Context, direction dto.Direction, pressed bool) (bool, error)
}

var navKeys = []struct {
	key ebiten.Key
	nav pagesourceinadapter.NavKey
}{
	{ebiten.KeyArrowUp, pagesourceinadapter.KeyUp},
	{ebiten.KeyPageUp, pagesourceinadapter.KeyPageUp},
	{ebiten.KeyArrowDown, pagesourceinadapter.KeyDown},
	{ebiten.KeyPageDown, pagesourceinadapter.KeyPageDown},
}

// Hotkeys is the resolved previous/next key pair.
type Hotkeys struct {
	Previous ebiten.Key
	Next     ebiten.Key
}

// ParseHotkeys resolves ebiten key names such as "Comma" or "PageUp".
func ParseHotkeys(cfg config.Hotkeys) (Hotkeys, error) {
	var hk Hotkeys
	if err := hk.Previous.UnmarshalText([]byte(cfg.Previous)); err != nil {
		return Hotkeys{}, fmt.Errorf("previous page hotkey %q: %w", cfg.Previous, err)
	}
	if err := hk.Next.UnmarshalText([]byte(cfg.Next)); err != nil {
		return Hotkeys{}, fmt.Errorf("next page hotkey %q: %w", cfg.Next, err)
	}
	return hk, nil
}

// Game hosts one source in a desktop window.
type Game struct {
	frames  framePort
	input   inputPort
	hotkeys Hotkeys
	gfx     *Graphics
}

func NewGame(frames framePort, input inputPort, gfx *Graphics, hotkeys Hotkeys) *Game {
	return &Game{frames: frames, input: input, gfx: gfx, hotkeys: hotkeys}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	ctx := context.Background()
	for _, k := range navKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			g.report(g.input.KeyClick(ctx, k.nav, false))
		}
		if inpututil.IsKeyJustReleased(k.key) {
			g.report(g.input.KeyClick(ctx, k.nav, true))
		}
	}
	g.hotkey(ctx, g.hotkeys.Previous, dto.DirectionPrevious)
	g.hotkey(ctx, g.hotkeys.Next, dto.DirectionNext)

	switch _, dy := ebiten.Wheel(); {
	case dy > 0:
		g.report(g.input.MouseWheel(ctx, 0, 1))
	case dy < 0:
		g.report(g.input.MouseWheel(ctx, 0, -1))
	}
	return nil
}

func (g *Game) hotkey(ctx context.Context, key ebiten.Key, direction dto.Direction) {
	if inpututil.IsKeyJustPressed(key) {
		g.report(g.input.Hotkey(ctx, direction, true))
	}
	if inpututil.IsKeyJustReleased(key) {
		g.report(g.input.Hotkey(ctx, direction, false))
	}
}

func (g *Game) report(ran bool, err error) {
	if err != nil {
		logging.Logger().Warn("page navigation failed", "source", g.input.Name(), "err", err)
		return
	}
	if ran {
		logging.Logger().Debug("page changed", "source", g.input.Name())
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	frame, err := g.frames.Frame(context.Background(), g.input.Name())
	if err != nil || frame.Width <= 0 || frame.Height <= 0 {
		return
	}
	tex, ok := frame.Texture.(*Texture)
	if !ok {
		return
	}
	g.gfx.Enter()
	defer g.gfx.Leave()
	if tex.rgba == nil {
		return
	}
	page := tex.img.SubImage(image.Rect(0, 0, frame.Width, frame.Height)).(*ebiten.Image)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := min(float64(sw)/float64(frame.Width), float64(sh)/float64(frame.Height))
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-scale*float64(frame.Width))/2, (float64(sh)-scale*float64(frame.Height))/2)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(page, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func title(name string) string {
	return "pagesource: " + name
}

// Run opens the window and blocks until it is closed.
func Run(game *Game) error {
	ebiten.SetWindowTitle(title(game.input.Name()))
	ebiten.SetWindowSize(816, 1056)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(game)
}
