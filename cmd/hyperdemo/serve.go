package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-hyperdemo/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			srv, err := server.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
