package window

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/hajimehoshi/ebiten/v2"

	pagesourceoutadapter "pagesource/internal/modules/pagesource/adapter/out"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
)

// Graphics allocates textures as ebiten images. Enter and Leave guard the
// pixel upload against a concurrent Draw.
type Graphics struct {
	mu sync.Mutex
}

func NewGraphics() *Graphics {
	return &Graphics{}
}

var _ pagesourceout.Graphics = (*Graphics)(nil)

func (g *Graphics) Enter() { g.mu.Lock() }
func (g *Graphics) Leave() { g.mu.Unlock() }

func (g *Graphics) CreateTexture(spec pagesourceout.TextureSpec, data []byte, stride int) (pagesourceout.Texture, error) {
	if spec.Format != gputypes.TextureFormatBGRA8Unorm {
		return nil, fmt.Errorf("window graphics: unsupported texture format %v", spec.Format)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("window graphics: invalid texture size %dx%d", spec.Width, spec.Height)
	}
	tex := &Texture{
		img:  ebiten.NewImage(spec.Width, spec.Height),
		rgba: make([]byte, spec.Width*spec.Height*4),
	}
	if data != nil {
		if err := tex.SetImage(data, stride); err != nil {
			tex.Destroy()
			return nil, err
		}
	}
	return tex, nil
}

type Texture struct {
	img  *ebiten.Image
	rgba []byte
}

func (t *Texture) Width() int  { return t.img.Bounds().Dx() }
func (t *Texture) Height() int { return t.img.Bounds().Dy() }

func (t *Texture) SetImage(data []byte, stride int) error {
	if t.rgba == nil {
		return fmt.Errorf("window graphics: texture destroyed")
	}
	w, h := t.Width(), t.Height()
	if stride < w*4 || len(data) < stride*(h-1)+w*4 {
		return fmt.Errorf("window graphics: %d bytes at stride %d cannot fill %dx%d", len(data), stride, w, h)
	}
	pagesourceoutadapter.BGRXToRGBA(t.rgba, data, w, h, stride)
	t.img.WritePixels(t.rgba)
	return nil
}

func (t *Texture) Destroy() {
	if t.rgba == nil {
		return
	}
	t.rgba = nil
	t.img.Deallocate()
}
