package out

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"

	pagesourceout "pagesource/internal/modules/pagesource/port/out"
)

// MemoryGraphics keeps textures in process memory. It backs hosts without a
// GPU: the render command and the terminal preview.
type MemoryGraphics struct {
	mu   sync.Mutex
	live int
}

func NewMemoryGraphics() *MemoryGraphics {
	return &MemoryGraphics{}
}

func (g *MemoryGraphics) Enter() { g.mu.Lock() }
func (g *MemoryGraphics) Leave() { g.mu.Unlock() }

// Live is the number of textures not yet destroyed.
func (g *MemoryGraphics) Live() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.live
}

// CreateTexture must be called between Enter and Leave.
func (g *MemoryGraphics) CreateTexture(spec pagesourceout.TextureSpec, data []byte, stride int) (pagesourceout.Texture, error) {
	if spec.Format != gputypes.TextureFormatBGRA8Unorm {
		return nil, fmt.Errorf("memory graphics: unsupported texture format %v", spec.Format)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("memory graphics: invalid texture size %dx%d", spec.Width, spec.Height)
	}
	tex := &MemoryTexture{
		graphics: g,
		width:    spec.Width,
		height:   spec.Height,
		pix:      make([]byte, spec.Width*spec.Height*4),
	}
	if data != nil {
		if err := tex.SetImage(data, stride); err != nil {
			return nil, err
		}
	}
	g.live++
	return tex, nil
}

// MemoryTexture stores BGRA texels row by row without padding.
type MemoryTexture struct {
	graphics  *MemoryGraphics
	width     int
	height    int
	pix       []byte
	destroyed bool
}

func (t *MemoryTexture) Width() int  { return t.width }
func (t *MemoryTexture) Height() int { return t.height }

func (t *MemoryTexture) SetImage(data []byte, stride int) error {
	if t.destroyed {
		return fmt.Errorf("memory graphics: texture destroyed")
	}
	row := t.width * 4
	if stride < row {
		return fmt.Errorf("memory graphics: stride %d shorter than row %d", stride, row)
	}
	if len(data) < stride*(t.height-1)+row {
		return fmt.Errorf("memory graphics: %d bytes cannot fill %dx%d", len(data), t.width, t.height)
	}
	for y := 0; y < t.height; y++ {
		copy(t.pix[y*row:(y+1)*row], data[y*stride:y*stride+row])
	}
	return nil
}

func (t *MemoryTexture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.pix = nil
	t.graphics.live--
}

// Image converts the top-left width x height texels to RGBA. The call takes
// the graphics scope itself, so it must not run between Enter and Leave.
func (t *MemoryTexture) Image(width, height int) (*image.RGBA, error) {
	t.graphics.Enter()
	defer t.graphics.Leave()
	if t.destroyed {
		return nil, fmt.Errorf("memory graphics: texture destroyed")
	}
	if width <= 0 || height <= 0 || width > t.width || height > t.height {
		return nil, fmt.Errorf("memory graphics: region %dx%d outside %dx%d texture", width, height, t.width, t.height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	BGRXToRGBA(img.Pix, t.pix, width, height, t.width*4)
	return img, nil
}
