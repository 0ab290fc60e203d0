package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/vector"
)

func newVectorCmd(application *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Manage the vector database connection",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Connect to Qdrant, print its version and disconnect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn := vector.New(application.cfg.Qdrant, vector.WithLogger(application.logger))
			if err := conn.Connect(ctx); err != nil {
				return err
			}

			version, err := conn.Version(ctx)
			if err != nil {
				_ = conn.Disconnect()
				return err
			}

			cfg := conn.Config()
			fmt.Fprintf(cmd.OutOrStdout(), "Qdrant %s em %s:%d\n", version, cfg.Host, cfg.Port)
			return conn.Disconnect()
		},
	})
	return cmd
}
