package domain

// Geometry is the raster layout reported by the engine.
type Geometry struct {
	Width  int
	Height int
	Stride int
}

// TexelWidth is the texture width needed to hold one full row.
func (g Geometry) TexelWidth() int {
	return g.Stride / BytesPerPixel
}

// Degenerate reports a raster that cannot back a texture.
func (g Geometry) Degenerate() bool {
	return g.Width <= 0 || g.Height <= 0 || g.TexelWidth() < g.Width
}

// RasterCapture collects what the engine delivers during one load cycle.
//
// The buffer passed to Notify belongs to the engine and is only valid until
// the engine call returns. Complete copies it into pixels, which the capture
// owns; Release drops the borrowed reference.
type RasterCapture struct {
	pending  Geometry
	borrowed []byte

	geometry Geometry
	pixels   []byte
	rendered bool
}

func NewRasterCapture() *RasterCapture {
	return &RasterCapture{}
}

// Notify records the geometry and buffer of the raster about to be
// delivered. The last call before Complete wins.
func (c *RasterCapture) Notify(width, height, stride int, buf []byte) {
	c.pending = Geometry{Width: width, Height: height, Stride: stride}
	c.borrowed = buf
}

// Complete marks the page as rendered and snapshots geometry and pixels.
func (c *RasterCapture) Complete() {
	c.rendered = true
	c.geometry = c.pending
	n := c.geometry.Stride * c.geometry.Height
	if n <= 0 || len(c.borrowed) < n {
		c.pixels = c.pixels[:0]
		return
	}
	if cap(c.pixels) < n {
		c.pixels = make([]byte, n)
	}
	c.pixels = c.pixels[:n]
	copy(c.pixels, c.borrowed[:n])
}

// Release forgets the engine buffer. Called once the engine call returns.
func (c *RasterCapture) Release() {
	c.borrowed = nil
}

func (c *RasterCapture) Rendered() bool {
	return c.rendered
}

func (c *RasterCapture) Geometry() Geometry {
	return c.geometry
}

func (c *RasterCapture) Pixels() []byte {
	return c.pixels
}

// Usable reports whether the capture holds a page that can be committed.
func (c *RasterCapture) Usable() bool {
	if !c.rendered || c.geometry.Degenerate() {
		return false
	}
	return len(c.pixels) == c.geometry.Stride*c.geometry.Height
}
