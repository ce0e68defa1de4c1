package service

import (
	"fmt"
	"sync"

	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	apperrors "pagesource/internal/platform/errors"
	"pagesource/internal/platform/id"
	"pagesource/internal/platform/logging"
)

// Runtime owns the process-wide engine instance. It registers the display
// callback table once, routes callbacks to the capture of the source whose
// handle they carry, and serializes engine passes: the engine is not
// reentrant, so one init/callbacks/exit sequence runs at a time across all
// sources.
type Runtime struct {
	engineMu sync.Mutex
	engine   pagesourceout.Engine
	closed   bool

	handles id.HandleSource

	capturesMu sync.RWMutex
	captures   map[domain.DisplayHandle]*domain.RasterCapture
}

// NewRuntime registers the display callback table on engine. A version
// mismatch is fatal: no source can be created without a runtime.
func NewRuntime(engine pagesourceout.Engine, handles id.HandleSource) (*Runtime, error) {
	r := &Runtime{
		engine:   engine,
		handles:  handles,
		captures: map[domain.DisplayHandle]*domain.RasterCapture{},
	}
	err := engine.SetDisplayCallback(pagesourceout.DisplayCallback{
		VersionMajor: domain.DisplayVersionMajor,
		VersionMinor: domain.DisplayVersionMinor,
		Device:       displayDispatcher{runtime: r},
	})
	if err != nil {
		return nil, fmt.Errorf("register display callback: %w", err)
	}
	logging.Logger().Info("engine runtime ready",
		"display_version", fmt.Sprintf("%d.%d", domain.DisplayVersionMajor, domain.DisplayVersionMinor))
	return r, nil
}

// Close deletes the engine instance. It waits for an in-flight pass.
func (r *Runtime) Close() error {
	r.engineMu.Lock()
	defer r.engineMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.engine.Delete(); err != nil {
		return fmt.Errorf("delete engine instance: %w", err)
	}
	logging.Logger().Info("engine runtime closed")
	return nil
}

func (r *Runtime) newHandle() domain.DisplayHandle {
	return domain.DisplayHandle(r.handles.Next())
}

// render runs one engine pass. Engine return codes are logged and otherwise
// ignored; whether a page arrived is read from the returned capture.
func (r *Runtime) render(req domain.RenderRequest) (*domain.RasterCapture, error) {
	capture := domain.NewRasterCapture()
	args := domain.BuildArguments(req)
	logger := logging.Logger()

	r.engineMu.Lock()
	defer r.engineMu.Unlock()
	if r.closed {
		return nil, apperrors.ErrRuntimeClosed
	}

	r.attach(req.Handle, capture)
	defer func() {
		r.detach(req.Handle)
		capture.Release()
	}()

	logger.Debug("engine invocation", "handle", req.Handle.String(), "args", args)
	if err := r.engine.InitWithArgs(args); err != nil {
		logger.Warn("engine init failed", "handle", req.Handle.String(), "page", req.Page, "err", err)
	}
	// Exit runs unconditionally so the shared instance is reusable.
	if err := r.engine.Exit(); err != nil {
		logger.Warn("engine exit failed", "handle", req.Handle.String(), "err", err)
	}
	return capture, nil
}

func (r *Runtime) attach(handle domain.DisplayHandle, capture *domain.RasterCapture) {
	r.capturesMu.Lock()
	r.captures[handle] = capture
	r.capturesMu.Unlock()
}

func (r *Runtime) detach(handle domain.DisplayHandle) {
	r.capturesMu.Lock()
	delete(r.captures, handle)
	r.capturesMu.Unlock()
}

func (r *Runtime) lookup(handle domain.DisplayHandle) *domain.RasterCapture {
	r.capturesMu.RLock()
	capture := r.captures[handle]
	r.capturesMu.RUnlock()
	if capture == nil {
		logging.Logger().Warn("display callback for unknown handle", "handle", handle.String())
	}
	return capture
}
