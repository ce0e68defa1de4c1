package out

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	pluginrpc "pagesource/internal/modules/pagesource/adapter/out/rpc"
	"pagesource/internal/modules/pagesource/domain"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 60 * time.Second
)

// PluginEngine runs rasterization in a separate engine process. The remote
// side records the display callbacks of one pass; they are replayed here
// against the registered device, so callers see the same synchronous
// protocol as with a local engine.
type PluginEngine struct {
	client pluginrpc.EngineClient
	kill   func()
	meta   pluginrpc.Metadata

	mu       sync.Mutex
	callback *pagesourceout.DisplayCallback
	pending  *pluginrpc.RenderResponse
	buf      []byte
	deleted  bool
}

// NewPluginEngine starts the engine plugin binary and keeps it running until
// Delete.
func NewPluginEngine(binary string, logger hclog.Logger) (*PluginEngine, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logger,
	})
	kill := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		kill()
		return nil, fmt.Errorf("start engine plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		kill()
		return nil, fmt.Errorf("dispense engine plugin: %w", err)
	}
	typed, ok := raw.(pluginrpc.EngineClient)
	if !ok {
		kill()
		return nil, fmt.Errorf("engine rpc client type mismatch")
	}
	engine, err := NewRemoteEngine(typed, kill)
	if err != nil {
		kill()
		return nil, err
	}
	return engine, nil
}

// NewRemoteEngine wraps an already connected client. kill is called on
// Delete and may be nil.
func NewRemoteEngine(client pluginrpc.EngineClient, kill func()) (*PluginEngine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultStartTimeout)
	defer cancel()
	meta, err := client.GetMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("get engine metadata: %w", err)
	}
	if kill == nil {
		kill = func() {}
	}
	return &PluginEngine{client: client, kill: kill, meta: *meta}, nil
}

func (e *PluginEngine) Name() string {
	return e.meta.Name + " " + e.meta.Version
}

func (e *PluginEngine) SetDisplayCallback(cb pagesourceout.DisplayCallback) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrEngineDeleted
	}
	if int32(cb.VersionMajor) != e.meta.DisplayVersionMajor || int32(cb.VersionMinor) != e.meta.DisplayVersionMinor {
		return fmt.Errorf("%w: table %d.%d, engine %d.%d", pagesourceout.ErrDisplayVersionMismatch,
			cb.VersionMajor, cb.VersionMinor, e.meta.DisplayVersionMajor, e.meta.DisplayVersionMinor)
	}
	if cb.Device == nil {
		return pagesourceout.ErrNoDisplayCallback
	}
	e.callback = &cb
	return nil
}

func (e *PluginEngine) InitWithArgs(args []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrEngineDeleted
	}
	if e.callback == nil {
		return pagesourceout.ErrNoDisplayCallback
	}
	if e.pending != nil {
		return ErrEngineBusy
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()
	resp, err := e.client.Render(ctx, &pluginrpc.RenderRequest{Args: args})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("engine render timed out: %w", err)
		}
		return fmt.Errorf("engine render: %w", err)
	}
	e.pending = resp
	if err := e.replay(resp.InitEvents); err != nil {
		return err
	}
	if resp.InitError != "" {
		return errors.New(resp.InitError)
	}
	return nil
}

func (e *PluginEngine) Exit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	resp := e.pending
	if resp == nil {
		return nil
	}
	e.pending = nil
	err := e.replay(resp.ExitEvents)
	for i := range e.buf {
		e.buf[i] = 0
	}
	if err != nil {
		return err
	}
	if resp.ExitError != "" {
		return errors.New(resp.ExitError)
	}
	return nil
}

func (e *PluginEngine) Delete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil
	}
	e.deleted = true
	e.callback = nil
	e.buf = nil
	e.kill()
	return nil
}

// replay drives the local device with recorded events. Size events announce
// a local buffer; page events fill it before the page callback.
func (e *PluginEngine) replay(events []pluginrpc.DisplayEvent) error {
	if e.callback == nil {
		return nil
	}
	device := e.callback.Device
	for _, ev := range events {
		h := domain.DisplayHandle(ev.Handle)
		var err error
		switch ev.Kind {
		case pluginrpc.EventOpen:
			err = device.Open(h)
		case pluginrpc.EventPreClose:
			err = device.PreClose(h)
		case pluginrpc.EventClose:
			err = device.Close(h)
		case pluginrpc.EventPreSize:
			err = device.PreSize(h, int(ev.Width), int(ev.Height), int(ev.Raster), domain.DisplayFormat(ev.Format))
		case pluginrpc.EventSize:
			n := int(ev.Raster) * int(ev.Height)
			if n < 0 {
				n = 0
			}
			if cap(e.buf) < n {
				e.buf = make([]byte, n)
			}
			e.buf = e.buf[:n]
			err = device.Size(h, int(ev.Width), int(ev.Height), int(ev.Raster), domain.DisplayFormat(ev.Format), e.buf)
		case pluginrpc.EventSync:
			err = device.Sync(h)
		case pluginrpc.EventUpdate:
			err = device.Update(h, int(ev.X), int(ev.Y), int(ev.Width), int(ev.Height))
		case pluginrpc.EventPage:
			copy(e.buf, ev.Pixels)
			err = device.Page(h, int(ev.Copies), ev.Flush)
		default:
			err = fmt.Errorf("unknown display event %q", ev.Kind)
		}
		if err != nil {
			return fmt.Errorf("display %s: %w", ev.Kind, err)
		}
	}
	return nil
}
