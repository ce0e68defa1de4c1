package service

import (
	"sync"

	"github.com/gogpu/gputypes"

	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	"pagesource/internal/platform/clock"
	apperrors "pagesource/internal/platform/errors"
	"pagesource/internal/platform/logging"
)

// Source is one configured document source: its settings, page cursor and
// the texture showing the current page. All methods are safe for concurrent
// use; load cycles run synchronously on the caller's goroutine.
type Source struct {
	mu       sync.Mutex
	runtime  *Runtime
	graphics pagesourceout.Graphics
	clock    clock.Clock
	handle   domain.DisplayHandle

	settings domain.Settings
	cursor   domain.Cursor

	// width and height are the committed raster size, 0 when texture is nil.
	width   int
	height  int
	texture pagesourceout.Texture

	stats  domain.LoadStats
	closed bool
}

// NewSource creates an empty source. Nothing is loaded until Update.
func (r *Runtime) NewSource(graphics pagesourceout.Graphics, clk clock.Clock) *Source {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Source{
		runtime:  r,
		graphics: graphics,
		clock:    clk,
		handle:   r.newHandle(),
		cursor:   domain.NewCursor(domain.MinPage),
	}
}

// Update applies new settings, resets the cursor to settings.Page and runs a
// load cycle.
func (s *Source) Update(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.ErrSourceClosed
	}
	s.settings = settings
	s.cursor = domain.NewCursor(settings.Page)
	return s.load()
}

// Navigate moves the cursor one page and reloads, also when the cursor is
// already at a bound.
func (s *Source) Navigate(d domain.Direction) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.ErrSourceClosed
	}
	from := s.cursor
	s.cursor = s.cursor.Step(d)
	// Stepping past the last page of a displayed document falls back to it.
	if d == domain.DirectionNext && s.texture != nil && s.cursor != from {
		return s.loadOrRetreat(from)
	}
	return s.load()
}

func (s *Source) Previous() error { return s.Navigate(domain.DirectionPrevious) }
func (s *Source) Next() error     { return s.Navigate(domain.DirectionNext) }

// Reload runs a load cycle for the current page.
func (s *Source) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.ErrSourceClosed
	}
	return s.load()
}

func (s *Source) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

func (s *Source) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Texture returns the current texture, nil when no page is displayed.
func (s *Source) Texture() pagesourceout.Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texture
}

func (s *Source) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Page()
}

func (s *Source) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Source) Stats() domain.LoadStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the texture. Further calls other than queries fail with
// ErrSourceClosed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graphics.Enter()
	defer s.graphics.Leave()
	s.releaseTexture()
	return nil
}

// load runs one cycle: engine pass (skipped without a document), then
// commit. Callers hold s.mu.
func (s *Source) load() error {
	return s.cycle(nil)
}

func (s *Source) loadOrRetreat(from domain.Cursor) error {
	return s.cycle(&from)
}

func (s *Source) cycle(fallback *domain.Cursor) error {
	start := s.clock.Now()
	s.stats.Cycles++

	capture, err := s.capture()
	if err != nil {
		return err
	}
	if fallback != nil && !capture.Usable() {
		logging.Logger().Debug("page past end of document", "handle", s.handle.String(), "page", s.cursor.Page())
		s.cursor = *fallback
		if capture, err = s.capture(); err != nil {
			return err
		}
	}

	s.commit(capture)
	s.stats.LastRendered = s.texture != nil
	s.stats.LastCycle = clock.Since(s.clock, start)
	if !s.stats.LastRendered && s.settings.HasDocument() {
		logging.Logger().Info("no page rendered", "handle", s.handle.String(), "page", s.cursor.Page(), "file", s.settings.FilePath)
	}
	return nil
}

func (s *Source) capture() (*domain.RasterCapture, error) {
	if !s.settings.HasDocument() {
		return domain.NewRasterCapture(), nil
	}
	capture, err := s.runtime.render(domain.RenderRequest{
		Handle:   s.handle,
		FilePath: s.settings.FilePath,
		Page:     s.cursor.Page(),
		Size:     s.settings.Size,
		DPI:      s.settings.DPI,
	})
	if err != nil {
		return nil, err
	}
	s.stats.EngineRuns++
	return capture, nil
}

// commit turns the capture into the displayed texture inside one graphics
// scope: clear when nothing usable arrived, update in place when the
// geometry is unchanged, otherwise recreate.
func (s *Source) commit(capture *domain.RasterCapture) {
	s.graphics.Enter()
	defer s.graphics.Leave()

	if !capture.Usable() {
		s.releaseTexture()
		return
	}

	geo := capture.Geometry()
	logger := logging.Logger()
	if s.texture != nil && s.fits(geo) {
		if err := s.texture.SetImage(capture.Pixels(), geo.Stride); err != nil {
			logger.Warn("texture update failed", "handle", s.handle.String(), "err", err)
			s.releaseTexture()
			return
		}
		s.stats.TexturesUpdated++
		return
	}

	s.releaseTexture()
	tex, err := s.graphics.CreateTexture(pagesourceout.TextureSpec{
		Width:   geo.TexelWidth(),
		Height:  geo.Height,
		Format:  gputypes.TextureFormatBGRA8Unorm,
		Dynamic: true,
	}, capture.Pixels(), geo.Stride)
	if err != nil {
		logger.Warn("texture creation failed", "handle", s.handle.String(), "width", geo.TexelWidth(), "height", geo.Height, "err", err)
		return
	}
	s.texture = tex
	s.width = geo.Width
	s.height = geo.Height
	s.stats.TexturesCreated++
	logger.Info("texture created", "handle", s.handle.String(), "width", geo.Width, "height", geo.Height)
}

func (s *Source) fits(geo domain.Geometry) bool {
	return s.width == geo.Width &&
		s.height == geo.Height &&
		s.texture.Width() == geo.TexelWidth() &&
		s.texture.Height() == geo.Height
}

func (s *Source) releaseTexture() {
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
		s.stats.TexturesDestroyed++
	}
	s.width = 0
	s.height = 0
}
