package out

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/bmp"

	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	"pagesource/internal/platform/logging"
)

const defaultRunTimeout = 30 * time.Second

var (
	ErrEngineDeleted       = errors.New("engine instance deleted")
	ErrEngineBusy          = errors.New("engine already initialized")
	ErrUnsupportedFormat   = errors.New("unsupported display format")
	ErrMissingDisplayToken = errors.New("display handle argument missing")
)

// CommandRunner runs a program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

type OSCommandRunner struct{}

func (OSCommandRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, fmt.Errorf("run %s: %w", name, err)
		}
		return out, fmt.Errorf("run %s: %w: %s", name, err, msg)
	}
	return out, nil
}

// ExecEngine drives the Ghostscript command line. Display device arguments
// are rewritten to a BMP stdout device; the decoded page is delivered
// through the registered display callbacks from a buffer the engine owns
// and scrubs on Exit.
type ExecEngine struct {
	binary  string
	runner  CommandRunner
	timeout time.Duration

	mu       sync.Mutex
	callback *pagesourceout.DisplayCallback
	deleted  bool

	active bool
	handle domain.DisplayHandle
	buf    []byte
}

type ExecEngineOption func(*ExecEngine)

func WithCommandRunner(runner CommandRunner) ExecEngineOption {
	return func(e *ExecEngine) { e.runner = runner }
}

func WithRunTimeout(timeout time.Duration) ExecEngineOption {
	return func(e *ExecEngine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func NewExecEngine(binary string, opts ...ExecEngineOption) *ExecEngine {
	e := &ExecEngine{
		binary:  binary,
		runner:  OSCommandRunner{},
		timeout: defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports whether the Ghostscript binary can be found.
func (e *ExecEngine) Enabled() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

func (e *ExecEngine) Binary() string {
	return e.binary
}

func (e *ExecEngine) SetDisplayCallback(cb pagesourceout.DisplayCallback) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrEngineDeleted
	}
	if cb.VersionMajor != domain.DisplayVersionMajor || cb.VersionMinor != domain.DisplayVersionMinor {
		return fmt.Errorf("%w: table %d.%d, engine %d.%d", pagesourceout.ErrDisplayVersionMismatch,
			cb.VersionMajor, cb.VersionMinor, domain.DisplayVersionMajor, domain.DisplayVersionMinor)
	}
	if cb.Device == nil {
		return pagesourceout.ErrNoDisplayCallback
	}
	e.callback = &cb
	return nil
}

// InitWithArgs runs one rasterization and delivers the result. Callbacks
// fire on the calling goroutine.
func (e *ExecEngine) InitWithArgs(args []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrEngineDeleted
	}
	if e.callback == nil {
		return pagesourceout.ErrNoDisplayCallback
	}
	if e.active {
		return ErrEngineBusy
	}
	handle, cmdArgs, err := translateArgs(args)
	if err != nil {
		return err
	}
	e.active = true
	e.handle = handle
	device := e.callback.Device

	if err := device.Open(handle); err != nil {
		return fmt.Errorf("display open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	logging.Logger().Debug("ghostscript run", "binary", e.binary, "args", cmdArgs)
	out, err := e.runner.Run(ctx, e.binary, cmdArgs)
	if err != nil {
		return err
	}
	img, err := firstBitmap(out)
	if err != nil {
		return err
	}
	if img == nil {
		return nil
	}
	return e.deliver(device, handle, img)
}

func (e *ExecEngine) deliver(device pagesourceout.DisplayDevice, handle domain.DisplayHandle, img image.Image) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	stride := alignStride(width*domain.BytesPerPixel, 8)
	if cap(e.buf) < stride*height {
		e.buf = make([]byte, stride*height)
	}
	e.buf = e.buf[:stride*height]
	fillBGRX(e.buf, stride, img)

	format := domain.DisplayFormatBGRX
	if err := device.PreSize(handle, width, height, stride, format); err != nil {
		return fmt.Errorf("display presize: %w", err)
	}
	if err := device.Size(handle, width, height, stride, format, e.buf); err != nil {
		return fmt.Errorf("display size: %w", err)
	}
	if err := device.Update(handle, 0, 0, width, height); err != nil {
		return fmt.Errorf("display update: %w", err)
	}
	if err := device.Sync(handle); err != nil {
		return fmt.Errorf("display sync: %w", err)
	}
	if err := device.Page(handle, 1, true); err != nil {
		return fmt.Errorf("display page: %w", err)
	}
	return nil
}

// Exit closes the device opened by InitWithArgs. It is a no-op without an
// active pass.
func (e *ExecEngine) Exit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return nil
	}
	e.active = false
	for i := range e.buf {
		e.buf[i] = 0
	}
	if e.callback == nil {
		return nil
	}
	device := e.callback.Device
	if err := device.PreClose(e.handle); err != nil {
		return fmt.Errorf("display preclose: %w", err)
	}
	if err := device.Close(e.handle); err != nil {
		return fmt.Errorf("display close: %w", err)
	}
	return nil
}

func (e *ExecEngine) Delete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleted = true
	e.callback = nil
	e.buf = nil
	return nil
}

// translateArgs replaces the display device tokens with a BMP stdout
// device and returns the handle they carried.
func translateArgs(args []string) (domain.DisplayHandle, []string, error) {
	if len(args) > 0 && args[0] == domain.ArgProgram {
		args = args[1:]
	}
	var handle domain.DisplayHandle
	found := false
	out := []string{"-q", "-dSAFER", "-dBATCH", "-dNOPAUSE", "-sDEVICE=bmp16m", "-sOutputFile=-"}
	for _, arg := range args {
		switch {
		case arg == domain.ArgDeviceDisplay:
		case strings.HasPrefix(arg, domain.ArgPrefixDisplayHandle):
			h, err := domain.ParseDisplayHandle(strings.TrimPrefix(arg, domain.ArgPrefixDisplayHandle))
			if err != nil {
				return 0, nil, err
			}
			handle = h
			found = true
		case strings.HasPrefix(arg, domain.ArgPrefixDisplayFormat):
			raw := strings.TrimPrefix(arg, domain.ArgPrefixDisplayFormat)
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || domain.DisplayFormat(n) != domain.DisplayFormatBGRX {
				return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw)
			}
		default:
			out = append(out, arg)
		}
	}
	if !found {
		return 0, nil, ErrMissingDisplayToken
	}
	return handle, out, nil
}

// firstBitmap decodes the first BMP of a concatenated stream. An empty
// stream yields nil.
func firstBitmap(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 6 || data[0] != 'B' || data[1] != 'M' {
		return nil, fmt.Errorf("decode page: output is not a bitmap")
	}
	size := int(binary.LittleEndian.Uint32(data[2:6]))
	if size <= 0 || size > len(data) {
		size = len(data)
	}
	img, err := bmp.Decode(bytes.NewReader(data[:size]))
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return img, nil
}

func alignStride(n, align int) int {
	return (n + align - 1) / align * align
}

func fillBGRX(dst []byte, stride int, img image.Image) {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < bounds.Dy(); y++ {
			src := rgba.Pix[y*rgba.Stride:]
			row := dst[y*stride : (y+1)*stride]
			for x := 0; x < bounds.Dx(); x++ {
				row[x*4] = src[x*4+2]
				row[x*4+1] = src[x*4+1]
				row[x*4+2] = src[x*4]
				row[x*4+3] = 0
			}
		}
		return
	}
	for y := 0; y < bounds.Dy(); y++ {
		row := dst[y*stride : (y+1)*stride]
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			row[x*4] = byte(b >> 8)
			row[x*4+1] = byte(g >> 8)
			row[x*4+2] = byte(r >> 8)
			row[x*4+3] = 0
		}
	}
}
