package service

import (
	"pagesource/internal/modules/pagesource/domain"
	"pagesource/internal/platform/logging"
)

// displayDispatcher is the device registered with the engine. It only
// records into the capture of the calling source; GPU work happens after the
// engine returns. Every callback reports success.
type displayDispatcher struct {
	runtime *Runtime
}

func (displayDispatcher) Open(domain.DisplayHandle) error     { return nil }
func (displayDispatcher) PreClose(domain.DisplayHandle) error { return nil }
func (displayDispatcher) Close(domain.DisplayHandle) error    { return nil }
func (displayDispatcher) Sync(domain.DisplayHandle) error     { return nil }

func (displayDispatcher) PreSize(domain.DisplayHandle, int, int, int, domain.DisplayFormat) error {
	return nil
}

func (displayDispatcher) Update(domain.DisplayHandle, int, int, int, int) error {
	return nil
}

func (d displayDispatcher) Size(handle domain.DisplayHandle, width, height, raster int, format domain.DisplayFormat, image []byte) error {
	capture := d.runtime.lookup(handle)
	if capture == nil {
		return nil
	}
	if format != domain.DisplayFormatBGRX {
		logging.Logger().Warn("unexpected display format", "handle", handle.String(), "format", uint32(format))
		capture.Notify(0, 0, 0, nil)
		return nil
	}
	logging.Logger().Debug("display size", "handle", handle.String(), "width", width, "height", height, "raster", raster)
	capture.Notify(width, height, raster, image)
	return nil
}

func (d displayDispatcher) Page(handle domain.DisplayHandle, copies int, flush bool) error {
	capture := d.runtime.lookup(handle)
	if capture == nil {
		return nil
	}
	capture.Complete()
	logging.Logger().Debug("display page", "handle", handle.String(), "copies", copies, "flush", flush)
	return nil
}
