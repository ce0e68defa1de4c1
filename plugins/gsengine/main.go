package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	pagesourceoutadapter "pagesource/internal/modules/pagesource/adapter/out"
	pluginrpc "pagesource/internal/modules/pagesource/adapter/out/rpc"
)

const version = "1.0.0"

func main() {
	binary := os.Getenv("PAGESOURCE_GHOSTSCRIPT")
	if binary == "" {
		binary = "gs"
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "gsengine",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})
	logger.Info("serving ghostscript engine", "binary", binary)

	server := pagesourceoutadapter.NewEngineServer("gsengine", version, pagesourceoutadapter.NewExecEngine(binary))
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(server),
		Logger:          logger,
		GRPCServer: func(opts []grpc.ServerOption) *grpc.Server {
			opts = append(opts, grpc.MaxSendMsgSize(pluginrpc.MaxMessageSize))
			return plugin.DefaultGRPCServer(opts)
		},
	})
}
