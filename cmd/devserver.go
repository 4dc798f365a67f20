package cmd

import (
	"campusdate/internal/stubapi"

	"github.com/spf13/cobra"
)

func newDevServerCmd(get func() *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := get().cfg.DevServer
			if addr == "" {
				addr = cfg.Addr()
			}
			return stubapi.Serve(cmd.Context(), addr, cfg.JWTSecret)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to devserver host and port)")
	return cmd
}
