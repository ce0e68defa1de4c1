package out

import (
	"context"
	"errors"

	"github.com/gogpu/gputypes"

	"pagesource/internal/modules/pagesource/domain"
)

var (
	ErrDisplayVersionMismatch = errors.New("display callback version mismatch")
	ErrNoDisplayCallback      = errors.New("display callback not set")
)

// DisplayDevice is the callback set an engine drives during one
// rasterization pass. Every call carries the display handle taken from the
// argument vector so one device can serve many sources.
//
// Implementations must not block and must not call back into the engine.
type DisplayDevice interface {
	Open(handle domain.DisplayHandle) error
	PreClose(handle domain.DisplayHandle) error
	Close(handle domain.DisplayHandle) error
	PreSize(handle domain.DisplayHandle, width, height, raster int, format domain.DisplayFormat) error
	// Size announces the buffer the next page is drawn into. image is owned
	// by the engine and valid only until the current engine call returns.
	Size(handle domain.DisplayHandle, width, height, raster int, format domain.DisplayFormat, image []byte) error
	Sync(handle domain.DisplayHandle) error
	Page(handle domain.DisplayHandle, copies int, flush bool) error
	Update(handle domain.DisplayHandle, x, y, w, h int) error
}

// DisplayCallback is the table registered on an engine instance. Engines
// compare both version fields against their own and reject the table with
// ErrDisplayVersionMismatch on any difference.
type DisplayCallback struct {
	VersionMajor int
	VersionMinor int
	Device       DisplayDevice
}

// Engine is a rasterization engine instance. Calls are synchronous; the
// display callbacks fire on the calling goroutine before InitWithArgs or
// Exit return. An instance is not reentrant.
type Engine interface {
	SetDisplayCallback(cb DisplayCallback) error
	InitWithArgs(args []string) error
	Exit() error
	Delete() error
}

// TextureSpec describes a texture to allocate.
type TextureSpec struct {
	Width   int
	Height  int
	Format  gputypes.TextureFormat
	Dynamic bool
}

// Texture is a GPU image owned by one source.
type Texture interface {
	Width() int
	Height() int
	// SetImage replaces the contents. data holds Height rows of stride bytes.
	SetImage(data []byte, stride int) error
	Destroy()
}

// Graphics is the host GPU context. Texture calls are only valid between
// Enter and Leave.
type Graphics interface {
	Enter()
	Leave()
	CreateTexture(spec TextureSpec, data []byte, stride int) (Texture, error)
}

// PropertiesStore persists named source configurations.
type PropertiesStore interface {
	Save(ctx context.Context, name string, props domain.Properties) error
	Load(ctx context.Context, name string) (domain.Properties, error)
	List(ctx context.Context) (map[string]domain.Properties, error)
	Delete(ctx context.Context, name string) error
}
