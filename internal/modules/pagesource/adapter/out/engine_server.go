package out

import (
	"context"
	"sync"

	pluginrpc "pagesource/internal/modules/pagesource/adapter/out/rpc"
	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
)

// EngineServer exposes a local engine over the plugin RPC contract. Each
// Render runs one init/exit pass and returns the display callbacks it saw.
type EngineServer struct {
	name    string
	version string

	mu       sync.Mutex
	engine   pagesourceout.Engine
	recorder *eventRecorder
	setupErr error
}

func NewEngineServer(name, version string, engine pagesourceout.Engine) *EngineServer {
	recorder := &eventRecorder{}
	s := &EngineServer{name: name, version: version, engine: engine, recorder: recorder}
	s.setupErr = engine.SetDisplayCallback(pagesourceout.DisplayCallback{
		VersionMajor: domain.DisplayVersionMajor,
		VersionMinor: domain.DisplayVersionMinor,
		Device:       recorder,
	})
	return s
}

func (s *EngineServer) GetMetadata(context.Context, *pluginrpc.Empty) (*pluginrpc.Metadata, error) {
	if s.setupErr != nil {
		return nil, s.setupErr
	}
	return &pluginrpc.Metadata{
		Name:                s.name,
		Version:             s.version,
		DisplayVersionMajor: domain.DisplayVersionMajor,
		DisplayVersionMinor: domain.DisplayVersionMinor,
	}, nil
}

func (s *EngineServer) Render(_ context.Context, in *pluginrpc.RenderRequest) (*pluginrpc.RenderResponse, error) {
	if s.setupErr != nil {
		return nil, s.setupErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &pluginrpc.RenderResponse{}
	s.recorder.reset()
	if err := s.engine.InitWithArgs(in.Args); err != nil {
		resp.InitError = err.Error()
	}
	resp.InitEvents = s.recorder.take()
	if err := s.engine.Exit(); err != nil {
		resp.ExitError = err.Error()
	}
	resp.ExitEvents = s.recorder.take()
	return resp, nil
}

// eventRecorder is the display device used on the server side. Page events
// carry a copy of the buffer announced by the last size event.
type eventRecorder struct {
	events []pluginrpc.DisplayEvent
	buf    []byte
}

func (r *eventRecorder) reset() {
	r.events = nil
	r.buf = nil
}

func (r *eventRecorder) take() []pluginrpc.DisplayEvent {
	events := r.events
	r.events = nil
	return events
}

func (r *eventRecorder) add(ev pluginrpc.DisplayEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) Open(h domain.DisplayHandle) error {
	return r.add(pluginrpc.DisplayEvent{Kind: pluginrpc.EventOpen, Handle: uint64(h)})
}

func (r *eventRecorder) PreClose(h domain.DisplayHandle) error {
	return r.add(pluginrpc.DisplayEvent{Kind: pluginrpc.EventPreClose, Handle: uint64(h)})
}

func (r *eventRecorder) Close(h domain.DisplayHandle) error {
	r.buf = nil
	return r.add(pluginrpc.DisplayEvent{Kind: pluginrpc.EventClose, Handle: uint64(h)})
}

func (r *eventRecorder) PreSize(h domain.DisplayHandle, width, height, raster int, format domain.DisplayFormat) error {
	return r.add(pluginrpc.DisplayEvent{
		Kind: pluginrpc.EventPreSize, Handle: uint64(h),
		Width: int32(width), Height: int32(height), Raster: int32(raster), Format: uint32(format),
	})
}

func (r *eventRecorder) Size(h domain.DisplayHandle, width, height, raster int, format domain.DisplayFormat, image []byte) error {
	r.buf = image
	return r.add(pluginrpc.DisplayEvent{
		Kind: pluginrpc.EventSize, Handle: uint64(h),
		Width: int32(width), Height: int32(height), Raster: int32(raster), Format: uint32(format),
	})
}

func (r *eventRecorder) Sync(h domain.DisplayHandle) error {
	return r.add(pluginrpc.DisplayEvent{Kind: pluginrpc.EventSync, Handle: uint64(h)})
}

func (r *eventRecorder) Page(h domain.DisplayHandle, copies int, flush bool) error {
	return r.add(pluginrpc.DisplayEvent{
		Kind: pluginrpc.EventPage, Handle: uint64(h),
		Copies: int32(copies), Flush: flush,
		Pixels: append([]byte(nil), r.buf...),
	})
}

func (r *eventRecorder) Update(h domain.DisplayHandle, x, y, w, hgt int) error {
	return r.add(pluginrpc.DisplayEvent{
		Kind: pluginrpc.EventUpdate, Handle: uint64(h),
		X: int32(x), Y: int32(y), Width: int32(w), Height: int32(hgt),
	})
}
