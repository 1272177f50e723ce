package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve simulations to AI agents over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools: schedsim_simulate, schedsim_compare, schedsim_chart, schedsim_history.
Resources: schedsim://runs/recent and schedsim://runs/{id}.

Workload paths passed to the tools must stay inside --root. Logs go to
stderr; stdout carries only the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(&mcp.Config{
				Name:     "schedsim",
				Version:  version,
				Root:     root,
				Settings: settings,
				Logger:   newLogger(cmd, settings),
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer srv.Close()

			return srv.Run(cmd.Context())
		},
	}
}
