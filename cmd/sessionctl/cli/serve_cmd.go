package cli

import (
	"github.com/spf13/cobra"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/mcpserver"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web interface and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("Serving on http://%s\n", addr)
			return server.New(addr).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7781", "listen address")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp",
		Short:  "Serve session tools over MCP stdio",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return mcpserver.Serve()
		},
	}
}
