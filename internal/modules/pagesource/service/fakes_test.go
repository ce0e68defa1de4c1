package service_test

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
)

// fakeEngine renders documents with a fixed page count. Page p is filled
// with byte value p so tests can tell pages apart; the buffer is scrubbed on
// Exit like a real engine reusing its memory.
type fakeEngine struct {
	mu sync.Mutex

	versionMajor int
	versionMinor int
	pages        int
	width        int
	height       int
	stride       int
	format       domain.DisplayFormat
	initErr      error

	device pagesourceout.DisplayDevice
	buf    []byte

	calls   [][]string
	exits   int
	deleted bool

	active    int
	maxActive int
}

func newFakeEngine(pages int) *fakeEngine {
	return &fakeEngine{
		versionMajor: domain.DisplayVersionMajor,
		versionMinor: domain.DisplayVersionMinor,
		pages:        pages,
		width:        9,
		height:       4,
		stride:       40,
		format:       domain.DisplayFormatBGRX,
	}
}

func (e *fakeEngine) SetDisplayCallback(cb pagesourceout.DisplayCallback) error {
	if cb.VersionMajor != e.versionMajor || cb.VersionMinor != e.versionMinor {
		return fmt.Errorf("%w: got %d.%d", pagesourceout.ErrDisplayVersionMismatch, cb.VersionMajor, cb.VersionMinor)
	}
	e.device = cb.Device
	return nil
}

func (e *fakeEngine) InitWithArgs(args []string) error {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string(nil), args...))
	e.active++
	if e.active > e.maxActive {
		e.maxActive = e.active
	}
	e.mu.Unlock()

	if e.initErr != nil {
		return e.initErr
	}
	handle, page, err := parseArgs(args)
	if err != nil {
		return err
	}
	if err := e.device.Open(handle); err != nil {
		return err
	}
	if page > e.pages {
		return errors.New("page out of range")
	}
	if e.buf == nil {
		e.buf = make([]byte, e.stride*e.height)
	}
	for i := range e.buf {
		e.buf[i] = byte(page)
	}
	if err := e.device.Size(handle, e.width, e.height, e.stride, e.format, e.buf); err != nil {
		return err
	}
	return e.device.Page(handle, 1, true)
}

func (e *fakeEngine) Exit() error {
	for i := range e.buf {
		e.buf[i] = 0xEE
	}
	e.mu.Lock()
	e.exits++
	e.active--
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) Delete() error {
	e.deleted = true
	return nil
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeEngine) lastArgs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return nil
	}
	return e.calls[len(e.calls)-1]
}

func parseArgs(args []string) (domain.DisplayHandle, int, error) {
	var handle domain.DisplayHandle
	page := 0
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, domain.ArgPrefixDisplayHandle):
			h, err := domain.ParseDisplayHandle(strings.TrimPrefix(arg, domain.ArgPrefixDisplayHandle))
			if err != nil {
				return 0, 0, err
			}
			handle = h
		case strings.HasPrefix(arg, domain.ArgPrefixPageList):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, domain.ArgPrefixPageList))
			if err != nil {
				return 0, 0, err
			}
			page = n
		}
	}
	return handle, page, nil
}

type fakeTexture struct {
	width     int
	height    int
	data      []byte
	updates   int
	destroyed bool
}

func (t *fakeTexture) Width() int  { return t.width }
func (t *fakeTexture) Height() int { return t.height }

func (t *fakeTexture) SetImage(data []byte, _ int) error {
	t.data = append(t.data[:0], data...)
	t.updates++
	return nil
}

func (t *fakeTexture) Destroy() { t.destroyed = true }

type fakeGraphics struct {
	mu        sync.Mutex
	depth     int
	enters    int
	created   []*fakeTexture
	createErr error
	outside   bool
}

func (g *fakeGraphics) Enter() {
	g.mu.Lock()
	g.depth++
	g.enters++
	g.mu.Unlock()
}

func (g *fakeGraphics) Leave() {
	g.mu.Lock()
	g.depth--
	g.mu.Unlock()
}

func (g *fakeGraphics) CreateTexture(spec pagesourceout.TextureSpec, data []byte, _ int) (pagesourceout.Texture, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depth == 0 {
		g.outside = true
	}
	if g.createErr != nil {
		return nil, g.createErr
	}
	tex := &fakeTexture{width: spec.Width, height: spec.Height, data: append([]byte(nil), data...)}
	g.created = append(g.created, tex)
	return tex, nil
}
