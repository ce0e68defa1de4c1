package out_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"reflect"
	"testing"

	"golang.org/x/image/bmp"

	pagesourceoutadapter "pagesource/internal/modules/pagesource/adapter/out"
	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
)

type fakeRunner struct {
	out  []byte
	err  error
	name string
	args []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string) ([]byte, error) {
	r.name = name
	r.args = args
	return r.out, r.err
}

type recordingDevice struct {
	events []string
	width  int
	height int
	raster int
	buf    []byte
	copied []byte
}

func (d *recordingDevice) Open(domain.DisplayHandle) error {
	d.events = append(d.events, "open")
	return nil
}

func (d *recordingDevice) PreClose(domain.DisplayHandle) error {
	d.events = append(d.events, "preclose")
	return nil
}

func (d *recordingDevice) Close(domain.DisplayHandle) error {
	d.events = append(d.events, "close")
	return nil
}

func (d *recordingDevice) PreSize(domain.DisplayHandle, int, int, int, domain.DisplayFormat) error {
	d.events = append(d.events, "presize")
	return nil
}

func (d *recordingDevice) Size(h domain.DisplayHandle, width, height, raster int, format domain.DisplayFormat, image []byte) error {
	d.events = append(d.events, fmt.Sprintf("size %s %d", h, format))
	d.width, d.height, d.raster, d.buf = width, height, raster, image
	return nil
}

func (d *recordingDevice) Sync(domain.DisplayHandle) error {
	d.events = append(d.events, "sync")
	return nil
}

func (d *recordingDevice) Page(domain.DisplayHandle, int, bool) error {
	d.events = append(d.events, "page")
	d.copied = append([]byte(nil), d.buf...)
	return nil
}

func (d *recordingDevice) Update(domain.DisplayHandle, int, int, int, int) error {
	d.events = append(d.events, "update")
	return nil
}

func encodeBMP(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	return buf.Bytes()
}

func newTestExecEngine(t *testing.T, runner *fakeRunner) (*pagesourceoutadapter.ExecEngine, *recordingDevice) {
	t.Helper()
	engine := pagesourceoutadapter.NewExecEngine("gs-test", pagesourceoutadapter.WithCommandRunner(runner))
	device := &recordingDevice{}
	if err := engine.SetDisplayCallback(pagesourceout.DisplayCallback{
		VersionMajor: domain.DisplayVersionMajor,
		VersionMinor: domain.DisplayVersionMinor,
		Device:       device,
	}); err != nil {
		t.Fatalf("set callback: %v", err)
	}
	return engine, device
}

func displayArgs(page int) []string {
	return domain.BuildArguments(domain.RenderRequest{
		Handle:   0x2a,
		FilePath: "/docs/deck.pdf",
		Page:     page,
		DPI:      &domain.DPIOverride{DPI: 96},
	})
}

func TestExecEngineDeliversPageThroughCallbacks(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{out: encodeBMP(t, 3, 2)}
	engine, device := newTestExecEngine(t, runner)

	if err := engine.InitWithArgs(displayArgs(2)); err != nil {
		t.Fatalf("init: %v", err)
	}
	wantArgs := []string{"-q", "-dSAFER", "-dBATCH", "-dNOPAUSE", "-sDEVICE=bmp16m", "-sOutputFile=-", "-sPageList=2", "-r96", "-f", "/docs/deck.pdf"}
	if runner.name != "gs-test" || !reflect.DeepEqual(runner.args, wantArgs) {
		t.Fatalf("ran %s %v", runner.name, runner.args)
	}
	if device.width != 3 || device.height != 2 || device.raster != 16 {
		t.Fatalf("geometry = %dx%d raster %d", device.width, device.height, device.raster)
	}
	if got := device.copied[:4]; !reflect.DeepEqual(got, []byte{30, 20, 10, 0}) {
		t.Fatalf("first pixel = %v, want BGRX", got)
	}
	if err := engine.Exit(); err != nil {
		t.Fatalf("exit: %v", err)
	}
	want := []string{"open", "presize", "size 16#2a 69892", "update", "sync", "page", "preclose", "close"}
	if !reflect.DeepEqual(device.events, want) {
		t.Fatalf("events = %v", device.events)
	}
	for i, b := range device.buf {
		if b != 0 {
			t.Fatalf("engine buffer byte %d not scrubbed", i)
		}
	}
}

func TestExecEngineWithoutOutputDeliversNoPage(t *testing.T) {
	t.Parallel()
	engine, device := newTestExecEngine(t, &fakeRunner{})
	if err := engine.InitWithArgs(displayArgs(40)); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = engine.Exit()
	if !reflect.DeepEqual(device.events, []string{"open", "preclose", "close"}) {
		t.Fatalf("events = %v", device.events)
	}
}

func TestExecEngineRunFailureStillCloses(t *testing.T) {
	t.Parallel()
	engine, device := newTestExecEngine(t, &fakeRunner{err: errors.New("exit status 1")})
	if err := engine.InitWithArgs(displayArgs(1)); err == nil {
		t.Fatalf("expected run error")
	}
	if err := engine.InitWithArgs(displayArgs(1)); !errors.Is(err, pagesourceoutadapter.ErrEngineBusy) {
		t.Fatalf("expected busy before exit, got %v", err)
	}
	if err := engine.Exit(); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if !reflect.DeepEqual(device.events, []string{"open", "preclose", "close"}) {
		t.Fatalf("events = %v", device.events)
	}
}

func TestExecEngineRejectsBadSetup(t *testing.T) {
	t.Parallel()
	engine := pagesourceoutadapter.NewExecEngine("gs-test", pagesourceoutadapter.WithCommandRunner(&fakeRunner{}))
	if err := engine.InitWithArgs(displayArgs(1)); !errors.Is(err, pagesourceout.ErrNoDisplayCallback) {
		t.Fatalf("expected missing callback, got %v", err)
	}
	err := engine.SetDisplayCallback(pagesourceout.DisplayCallback{VersionMajor: 2, Device: &recordingDevice{}})
	if !errors.Is(err, pagesourceout.ErrDisplayVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	if err := engine.SetDisplayCallback(pagesourceout.DisplayCallback{VersionMajor: 3}); !errors.Is(err, pagesourceout.ErrNoDisplayCallback) {
		t.Fatalf("expected nil device rejection, got %v", err)
	}

	engine, _ = newTestExecEngine(t, &fakeRunner{})
	args := displayArgs(1)
	args[3] = domain.ArgPrefixDisplayFormat + "4"
	if err := engine.InitWithArgs(args); !errors.Is(err, pagesourceoutadapter.ErrUnsupportedFormat) {
		t.Fatalf("expected format rejection, got %v", err)
	}
	if err := engine.InitWithArgs([]string{"gs", "-f", "/docs/deck.pdf"}); !errors.Is(err, pagesourceoutadapter.ErrMissingDisplayToken) {
		t.Fatalf("expected missing handle, got %v", err)
	}
	if err := engine.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := engine.InitWithArgs(displayArgs(1)); !errors.Is(err, pagesourceoutadapter.ErrEngineDeleted) {
		t.Fatalf("expected deleted, got %v", err)
	}
}

func TestExecEngineRejectsGarbageOutput(t *testing.T) {
	t.Parallel()
	engine, _ := newTestExecEngine(t, &fakeRunner{out: []byte("%!PS not a bitmap")})
	if err := engine.InitWithArgs(displayArgs(1)); err == nil {
		t.Fatalf("expected decode error")
	}
	_ = engine.Exit()
}
