package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "gsengine"
	serviceName       = "pagesource.engine.v1.Engine"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodRender      = "/" + serviceName + "/Render"

	// MaxMessageSize bounds one rendered page on the wire.
	MaxMessageSize = 256 << 20
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PAGESOURCE_ENGINE",
	MagicCookieValue: "gsengine",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name                string `json:"name"`
	Version             string `json:"version"`
	DisplayVersionMajor int32  `json:"display_version_major"`
	DisplayVersionMinor int32  `json:"display_version_minor"`
}

// Event kinds mirror the display device callbacks.
const (
	EventOpen     = "open"
	EventPreClose = "preclose"
	EventClose    = "close"
	EventPreSize  = "presize"
	EventSize     = "size"
	EventSync     = "sync"
	EventPage     = "page"
	EventUpdate   = "update"
)

// DisplayEvent is one recorded display callback. Pixels is only set on
// page events and holds the buffer announced by the preceding size event.
type DisplayEvent struct {
	Kind   string `json:"kind"`
	Handle uint64 `json:"handle"`
	Width  int32  `json:"width,omitempty"`
	Height int32  `json:"height,omitempty"`
	Raster int32  `json:"raster,omitempty"`
	Format uint32 `json:"format,omitempty"`
	Copies int32  `json:"copies,omitempty"`
	Flush  bool   `json:"flush,omitempty"`
	X      int32  `json:"x,omitempty"`
	Y      int32  `json:"y,omitempty"`
	Pixels []byte `json:"pixels,omitempty"`
}

type RenderRequest struct {
	Args []string `json:"args"`
}

type RenderResponse struct {
	InitEvents []DisplayEvent `json:"init_events"`
	InitError  string         `json:"init_error,omitempty"`
	ExitEvents []DisplayEvent `json:"exit_events"`
	ExitError  string         `json:"exit_error,omitempty"`
}

type EngineServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Render(ctx context.Context, in *RenderRequest) (*RenderResponse, error)
}

type EngineClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Render(ctx context.Context, in *RenderRequest) (*RenderResponse, error)
}

type engineClient struct {
	conn *grpc.ClientConn
}

func NewEngineClient(conn *grpc.ClientConn) EngineClient {
	return &engineClient{conn: conn}
}

func (c *engineClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) Render(ctx context.Context, in *RenderRequest) (*RenderResponse, error) {
	out := &RenderResponse{}
	err := c.conn.Invoke(ctx, methodRender, in, out,
		grpc.CallContentSubtype(jsonCodecName),
		grpc.MaxCallRecvMsgSize(MaxMessageSize),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterEngineServer(server grpc.ServiceRegistrar, impl EngineServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*EngineServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Render",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &RenderRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Render(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRender}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*RenderRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Render(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/engine-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl EngineServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterEngineServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewEngineClient(conn), nil
}

func PluginMap(impl EngineServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
